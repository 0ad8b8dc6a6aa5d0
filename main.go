package main

import "github.com/stashdb/stashdb/cmd"

func main() {
	cmd.Execute()
}
