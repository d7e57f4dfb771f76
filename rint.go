package main

import "github.com/hillstoneLeo/rint-data-manager/cmd"

func main() {
	cmd.Execute()
}
