package main

import "montage/internal/cli"

func main() {
	cli.Execute()
}
