package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/toastd/internal/dbus"
	"github.com/jmylchreest/toastd/internal/display"
)

var statusOpts struct {
	output string
}

// WaybarStatus represents the Waybar custom module JSON format.
type WaybarStatus struct {
	Text    string `json:"text"`
	Alt     string `json:"alt,omitempty"`
	Tooltip string `json:"tooltip,omitempty"`
	Class   string `json:"class,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the notification stack",
	Long: `Show the toasts on screen, their slots and when they expire, and the
notifications waiting for a free slot.

Output formats:
  table   human readable (default)
  json    the daemon's snapshot
  waybar  Waybar custom module JSON:

  "custom/toasts": {
    "exec": "toastctl status -o waybar",
    "interval": 5,
    "return-type": "json",
    "on-click": "toastctl close-all"
  }`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVarP(&statusOpts.output, "output", "o", "table",
		"Output format: table, json or waybar")
}

func runStatus(cmd *cobra.Command, args []string) error {
	return withClient(func(c *dbus.Client) error {
		snap, err := c.Status()
		if err != nil {
			if statusOpts.output == "waybar" {
				return outputWaybar(cmd.OutOrStdout(), WaybarStatus{Alt: "error", Class: "error"})
			}
			return err
		}

		switch statusOpts.output {
		case "table":
			_, err := io.WriteString(cmd.OutOrStdout(), renderStatus(snap, time.Now()))
			return err
		case "json":
			return writeJSON(cmd.OutOrStdout(), snap)
		case "waybar":
			return outputWaybar(cmd.OutOrStdout(), waybarStatus(snap))
		default:
			return fmt.Errorf("unknown output format %q", statusOpts.output)
		}
	})
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	cellStyle   = lipgloss.NewStyle().PaddingRight(2)
)

// renderStatus formats a snapshot as a table.
func renderStatus(s display.Snapshot, now time.Time) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("toastd") + "\n")
	fmt.Fprintf(&b, "%s %d/%d  %s %d  %s %s (%d queued)  %s %s\n",
		labelStyle.Render("visible"), len(s.Active), s.MaxVisible,
		labelStyle.Render("pending"), len(s.Pending),
		labelStyle.Render("queue"), s.QueueState, s.QueuedJobs,
		labelStyle.Render("template"), s.Template,
	)

	if len(s.Active) == 0 {
		b.WriteString(labelStyle.Render("no notifications on screen") + "\n")
		return b.String()
	}

	rows := [][]string{{"SLOT", "ID", "POSITION", "EXPIRES", "TITLE"}}
	for _, t := range s.Active {
		rows = append(rows, []string{
			fmt.Sprintf("%d", t.Slot),
			fmt.Sprintf("%d", t.ID),
			fmt.Sprintf("%d,%d", t.X, t.Y),
			expiry(t.ExpiresAt, now),
			t.Title,
		})
	}

	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	b.WriteString("\n")
	for r, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			style := cellStyle.Width(widths[i] + 2)
			if r == 0 {
				style = style.Inherit(labelStyle)
			}
			cells[i] = style.Render(cell)
		}
		b.WriteString(strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, cells...), " ") + "\n")
	}

	if len(s.Pending) > 0 {
		ids := make([]string, len(s.Pending))
		for i, id := range s.Pending {
			ids[i] = fmt.Sprintf("%d", id)
		}
		fmt.Fprintf(&b, "\n%s %s\n", labelStyle.Render("waiting:"), strings.Join(ids, " "))
	}
	return b.String()
}

func expiry(at, now time.Time) string {
	if at.IsZero() {
		return "never"
	}
	return humanize.RelTime(at, now, "ago", "from now")
}

// waybarStatus summarises a snapshot for a Waybar module.
func waybarStatus(s display.Snapshot) WaybarStatus {
	total := len(s.Active) + len(s.Pending)
	if total == 0 {
		return WaybarStatus{Text: "", Alt: "empty", Class: "empty", Tooltip: "No notifications"}
	}

	class := "active"
	if len(s.Pending) > 0 {
		class = "pending"
	}

	tooltip := fmt.Sprintf("On screen: %d", len(s.Active))
	if len(s.Pending) > 0 {
		tooltip += fmt.Sprintf("\nWaiting: %d", len(s.Pending))
	}

	return WaybarStatus{
		Text:    fmt.Sprintf("%d", total),
		Alt:     class,
		Tooltip: tooltip,
		Class:   class,
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputWaybar writes the status as a single JSON line.
func outputWaybar(w io.Writer, status WaybarStatus) error {
	return json.NewEncoder(w).Encode(status)
}
