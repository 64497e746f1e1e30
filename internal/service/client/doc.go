// Package client defines the shared command logic for alarm-button-on/off.
//
// The command connects to the alarm controller and pushes the requested
// state, retrying until the controller confirms it.
package client
