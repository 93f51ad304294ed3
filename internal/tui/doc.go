// Package tui provides the live terminal view of a drawbridge simulation.
//
// The view is rebuilt entirely from bus events: it never calls into the
// monitor, so rendering cannot hold up a crossing. [App] subscribes to the
// bus as soon as it is created, buffers events until the Bubble Tea program
// runs, and forwards them with Program.Send.
package tui
