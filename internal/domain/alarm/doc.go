// Package alarm contains core domain types for the alarm business logic.
//
// It defines the alarm and output states, the blink Schedule that maps elapsed
// time to the desired output, the textual Command protocol, and Status with
// Actor for diagnostics. Clone helpers avoid leaking internal references.
package alarm
