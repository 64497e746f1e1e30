package main

import "github.com/oshokin/alarm-blinker/cmd/alarm-controller/cmd"

func main() {
	cmd.Execute()
}
