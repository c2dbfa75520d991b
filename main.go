package main

import "github.com/inferara/infs/cmd"

func main() {
	cmd.Execute()
}
