package main

import (
	"github.com/joho/godotenv"
)

func main() {
	// Optional .env next to the binary, loaded before viper sees the env.
	_ = godotenv.Load()
	Execute()
}
