package main

import "github.com/encodeous/dualsim/cmd"

func main() {
	cmd.Execute()
}
