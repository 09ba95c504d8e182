package main

import "github.com/uiforge/compsync/cmd"

func main() {
	cmd.Execute()
}
