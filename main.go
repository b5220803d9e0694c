package main

import "github.com/slmtnm/blobnav/internal/cli"

func main() {
	cli.Execute()
}
