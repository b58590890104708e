package main

import "github.com/skawahara/yotei/cmd/yotei/cmd"

func main() {
	cmd.Execute()
}
