package main

import "github.com/Emzykings/PallyOps-Tracker/internal/cli"

func main() {
	cli.Execute()
}
