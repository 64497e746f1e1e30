// Package server runs the alarm controller process.
//
// It wires the controller to the clock, the output driver, metrics, and the
// HTTP and gRPC transports, and drives the blink pattern from a ticker loop.
package server
