package main

import "github.com/testovak/testovak/cmd"

func main() {
	cmd.Execute()
}
