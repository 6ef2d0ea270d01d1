package main

import "github.com/kozaktomas/baptism-gallery/cmd"

func main() {
	cmd.Execute()
}
