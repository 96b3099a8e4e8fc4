package main

import "github.com/AzielCF/az-lookups/cmd"

func main() {
	cmd.Execute()
}
