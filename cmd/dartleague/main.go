package main

import "github.com/mcoot/dartleague/internal/cli"

func main() {
	cli.Execute()
}
