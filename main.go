package main

import (
	"github.com/joho/godotenv"

	"github.com/soocke/arrow-bot-go/cmd"
)

func main() {
	// ARROWBOT_* overrides may come from a local .env file; a missing file
	// is fine.
	_ = godotenv.Load()

	cmd.Execute(NewLogger)
}
