package dbus

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer() (*NotificationServer, *[]*DBusNotification, *[]uint32) {
	s := NewNotificationServer(nil)

	var (
		received []*DBusNotification
		closed   []uint32
		nextID   uint32
	)
	s.SetNotifyHandler(func(n *DBusNotification) uint32 {
		received = append(received, n)
		nextID++
		return nextID
	})
	s.SetCloseHandler(func(id uint32) { closed = append(closed, id) })
	return s, &received, &closed
}

func TestNotify(t *testing.T) {
	s, received, _ := newTestServer()

	hints := map[string]dbus.Variant{HintURL: dbus.MakeVariant("https://example.com")}
	id, dErr := s.Notify("mail", 0, "mail-unread", "New mail", "From: alice", []string{"default", "Open"}, hints, 3000)
	require.Nil(t, dErr)

	assert.Equal(t, uint32(1), id)
	assert.True(t, s.IsActive(id))
	require.Len(t, *received, 1)

	n := (*received)[0]
	assert.Equal(t, "mail", n.AppName)
	assert.Equal(t, "New mail", n.Summary)
	assert.Equal(t, "From: alice", n.Body)
	assert.Equal(t, int32(3000), n.ExpireTimeout)
	assert.Equal(t, "https://example.com", n.URL())
}

func TestNotify_NoHandler(t *testing.T) {
	s := NewNotificationServer(nil)

	_, dErr := s.Notify("app", 0, "", "summary", "", nil, nil, -1)
	assert.NotNil(t, dErr)

	_, err := s.NotifyInternal(&DBusNotification{})
	assert.ErrorIs(t, err, ErrNoHandler)
}

func TestNotify_ReplacesID(t *testing.T) {
	s, _, closed := newTestServer()

	first, _ := s.Notify("app", 0, "", "v1", "", nil, nil, -1)
	second, dErr := s.Notify("app", first, "", "v2", "", nil, nil, -1)
	require.Nil(t, dErr)

	assert.NotEqual(t, first, second)
	assert.Equal(t, []uint32{first}, *closed)

	// Unknown replaces_id just shows a new notification.
	_, dErr = s.Notify("app", 999, "", "v3", "", nil, nil, -1)
	require.Nil(t, dErr)
	assert.Equal(t, []uint32{first}, *closed)
}

func TestCloseNotification(t *testing.T) {
	s, _, closed := newTestServer()

	id, _ := s.Notify("app", 0, "", "summary", "", nil, nil, -1)

	require.Nil(t, s.CloseNotification(id))
	assert.Equal(t, []uint32{id}, *closed)

	// Unknown ids are ignored.
	require.Nil(t, s.CloseNotification(42))
	assert.Equal(t, []uint32{id}, *closed)
}

func TestCloseWithReason(t *testing.T) {
	s, _, _ := newTestServer()

	id, _ := s.Notify("app", 0, "", "summary", "", nil, nil, -1)
	assert.Equal(t, 1, s.ActiveCount())

	err := s.CloseWithReason(id, CloseReasonExpired)
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.False(t, s.IsActive(id))
	assert.Zero(t, s.ActiveCount())
}

func TestMarkClosed_BeforeNotifyReturns(t *testing.T) {
	s := NewNotificationServer(nil)
	s.SetNotifyHandler(func(n *DBusNotification) uint32 {
		// The manager closed it before the server recorded the id.
		s.MarkClosed(7)
		return 7
	})

	id, err := s.NotifyInternal(&DBusNotification{Summary: "fleeting"})
	require.NoError(t, err)
	assert.Equal(t, uint32(7), id)
	assert.False(t, s.IsActive(id))
	assert.Zero(t, s.ActiveCount())
}

func TestInvokeAction(t *testing.T) {
	s, _, _ := newTestServer()

	withDefault, _ := s.Notify("app", 0, "", "a", "", []string{"default", "Open"}, nil, -1)
	plain, _ := s.Notify("app", 0, "", "b", "", nil, nil, -1)
	resident, _ := s.Notify("app", 0, "", "c", "", nil,
		map[string]dbus.Variant{"resident": dbus.MakeVariant(true)}, -1)

	closeAfter, err := s.InvokeAction(withDefault)
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.True(t, closeAfter)

	closeAfter, err = s.InvokeAction(plain)
	assert.NoError(t, err)
	assert.True(t, closeAfter)

	closeAfter, err = s.InvokeAction(resident)
	assert.NoError(t, err)
	assert.False(t, closeAfter)

	closeAfter, err = s.InvokeAction(1000)
	assert.NoError(t, err)
	assert.False(t, closeAfter)
}

func TestServerInformation(t *testing.T) {
	s := NewNotificationServer(nil)
	s.SetServerInfo(ServerInfo{Name: "toastd", Vendor: "toastd", Version: "1.2.3", SpecVersion: "1.2"})

	name, vendor, version, spec, dErr := s.GetServerInformation()
	require.Nil(t, dErr)
	assert.Equal(t, "toastd", name)
	assert.Equal(t, "toastd", vendor)
	assert.Equal(t, "1.2.3", version)
	assert.Equal(t, "1.2", spec)

	caps, dErr := s.GetCapabilities()
	require.Nil(t, dErr)
	assert.Contains(t, caps, "actions")
	assert.Contains(t, caps, HintURL)
}
