package main

import "github.com/drosengarten/bulwark/internal/cli"

func main() {
	cli.Execute()
}
