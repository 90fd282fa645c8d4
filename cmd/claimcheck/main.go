package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"claimcheck/internal/cli"
)

func main() {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
