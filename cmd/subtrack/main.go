package main

import "github.com/panpapadopoulos/subtrack/cmd/subtrack/cmd"

func main() {
	cmd.Execute()
}
