package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/iskomart/iskomart-backend/pkg/auth"
	"github.com/iskomart/iskomart-backend/pkg/config"
)

// devtoken prints a bearer token for a user so the API can be exercised
// locally with ISKOMART_JWT_REQUIRED on.
func main() {
	_ = godotenv.Load()

	userID := flag.String("user", "", "user id to sign for")
	username := flag.String("username", "", "optional username claim")
	flag.Parse()

	var cfg config.JWTConfig
	if err := envconfig.Process(config.EnvPrefix, &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "parsing jwt config: %v\n", err)
		os.Exit(1)
	}

	id, err := uuid.Parse(*userID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -user: %v\n", err)
		os.Exit(1)
	}

	token, err := auth.MintAccessToken(cfg, time.Now().UTC(), id, *username)
	if err != nil {
		fmt.Fprintf(os.Stderr, "minting token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
