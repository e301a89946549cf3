package main

import "github.com/darmiel/privaudit/cmd"

func main() {
	cmd.Execute()
}
