package main

import "github.com/atikulmunna/pageview/internal/cmd"

func main() {
	cmd.Execute()
}
