package main

import "vendorrag/internal/cli"

func main() {
	cli.Execute()
}
