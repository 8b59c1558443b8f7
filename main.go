package main

import "arq-generator/internal/cli"

func main() {
	cli.Execute()
}
