package main

import "github.com/eventatlas/eventatlas/cmd"

func main() {
	cmd.Execute()
}
