// Package config defines the settings shared by the alarm binaries and
// provides helpers to load, validate and save them in YAML format.
//
// Besides connection parameters it carries the blink schedule and the output
// driver selection of the controller.
package config
