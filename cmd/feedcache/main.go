package main

import (
	"github.com/joho/godotenv"

	"feedcache/cmd/feedcache/cmd"
)

func main() {
	_ = godotenv.Load(".env")
	cmd.Execute()
}
