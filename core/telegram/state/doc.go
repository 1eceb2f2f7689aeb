// Package state keeps per-chat conversation sessions in memory and runs each
// chat's work on its own goroutine so updates of one chat never overlap.
package state
