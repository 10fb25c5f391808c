package main

import (
	"fmt"
	"os"

	"github.com/forgeport/sf2github/internal/ui"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.RenderFail("Error: "+err.Error()))
		os.Exit(1)
	}
}
