package main

import "github.com/mchmarny/shortlist/pkg/cli"

func main() {
	cli.Execute()
}
