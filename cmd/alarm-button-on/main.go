package main

import "github.com/oshokin/alarm-blinker/cmd/alarm-button-on/cmd"

func main() {
	cmd.Execute()
}
