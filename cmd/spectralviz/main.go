package main

import "spectralviz/cmd/spectralviz/cmd"

func main() {
	cmd.Execute()
}
