package main

import "github.com/rickchristie/vigil/internal/cli"

func main() {
	cli.Execute()
}
