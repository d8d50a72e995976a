package main

import "github.com/mcoot/tichu/internal/cli"

func main() {
	cli.Execute()
}
