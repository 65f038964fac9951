package main

import "github.com/MeKo-Tech/nonmax/cmd/nonmax/cmd"

func main() {
	cmd.Execute()
}
