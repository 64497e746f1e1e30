// Package clock supplies the wrapping millisecond counter the alarm
// controller measures time with.
//
// Timestamps wrap modulo 2^32 (about 49.7 days), so elapsed time must always
// be computed with Sub or Since, never by comparing raw readings.
package clock
