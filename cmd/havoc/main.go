package main

import "github.com/havocd/havoc/internal/cli"

func main() {
	cli.Execute()
}
