package main

import "github.com/mcoot/coursehub/internal/cli"

func main() {
	cli.Execute()
}
