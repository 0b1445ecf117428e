package main

import "github.com/mrintern/server/cmd/server/cmd"

func main() {
	cmd.Execute()
}
