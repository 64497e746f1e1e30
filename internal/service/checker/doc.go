// Package checker polls the alarm controller and reports state changes.
package checker
