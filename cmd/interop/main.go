package main

import "github.com/MeKo-Tech/interop/cmd/interop/cmd"

func main() {
	cmd.Execute()
}
