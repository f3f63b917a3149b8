package main

import "github.com/crpt-tools/guilaunch/cmd"

func main() {
	cmd.Execute()
}
