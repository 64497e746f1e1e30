// Package controller implements the alarm timing state machine.
//
// A Controller owns the armed state, the arm timestamp and the output state.
// Arm, Disarm and Poll are the only mutating operations and share one mutex,
// so transports and the driver loop may call them from different goroutines.
package controller
