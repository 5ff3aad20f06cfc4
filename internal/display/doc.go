// Package display implements the toast stacking scheduler: slot geometry,
// the single-flight animation queue, slide animations, and the notification
// lifecycle (show, pending queue, dismiss timers, close and click handling).
//
// All state in this package is confined to a loop.Loop. Exported Manager
// methods may be called from any goroutine; they post onto the loop.
package display
