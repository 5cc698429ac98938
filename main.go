package main

import "github.com/agentic-research/seedling/cmd"

func main() {
	cmd.Execute()
}
