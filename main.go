package main

import "trunkline.dev/trunkline/cmd"

func main() {
	cmd.Execute()
}
