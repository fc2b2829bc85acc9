package main

import "leadgen/cmd"

func main() {
	cmd.Execute()
}
