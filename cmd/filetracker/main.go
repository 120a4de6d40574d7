package main

import (
	"errors"
	"os"
)

// version is set via ldflags during build
var version = "dev"

// Exit codes: 0 clean batch, 1 batch finished with per-file errors,
// 2 configuration or startup failure.
func main() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errBatchHadErrors) {
			os.Exit(1)
		}
		os.Exit(2)
	}
}
