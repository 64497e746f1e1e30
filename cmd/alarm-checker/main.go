package main

import "github.com/oshokin/alarm-blinker/cmd/alarm-checker/cmd"

func main() {
	cmd.Execute()
}
