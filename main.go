package main

import "github.com/KaramelBytes/returnlens-cli/cmd"

func main() {
	cmd.Execute()
}
