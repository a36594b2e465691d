package main

import "github.com/philipparndt/rigidreg/internal/cmd"

func main() {
	cmd.Parse()
}
