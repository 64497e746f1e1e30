// Package output implements the drivers that turn the controller's logical
// output state into a physical effect.
package output
