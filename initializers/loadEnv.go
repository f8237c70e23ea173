package initializers

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// LoadEnv reads .env when present. Variables already set in the process
// environment win over the file.
func LoadEnv() {
	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		log.Println("No .env file found, using process environment")
		return
	}

	if err := godotenv.Load(); err != nil {
		log.Fatalf("Error loading .env file: %v", err)
	}
}
