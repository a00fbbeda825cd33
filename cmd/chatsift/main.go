// Package main provides the entry point for the chatsift CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/chatsift/cmd/chatsift/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
