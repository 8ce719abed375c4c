package main

import "github.com/Tiliavir/ti/cmd"

func main() {
	cmd.Execute()
}
