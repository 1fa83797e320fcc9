package main

import "github.com/amterp/taskboard/internal/cli"

func main() {
	cli.Run()
}
