package main

import "esgrag/internal/cli"

func main() {
	cli.Execute()
}
