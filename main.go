package main

import (
	"os"

	"github.com/MelomanCat/getaround-project/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
