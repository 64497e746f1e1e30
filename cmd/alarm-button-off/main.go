package main

import "github.com/oshokin/alarm-blinker/cmd/alarm-button-off/cmd"

func main() {
	cmd.Execute()
}
