package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// Credentials usually come from a .env next to config.yaml.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
