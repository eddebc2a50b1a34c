package main

import "github.com/JakeFAU/pdfingest/cmd"

func main() {
	cmd.Execute()
}
