// Command issue-token mints an access token for local development, standing
// in for the authentication provider.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/practix/practix/shared/config"
	"github.com/practix/practix/shared/jwt"
)

func main() {
	var configFolder, userId string
	flag.StringVar(&configFolder, "config_folder", "backend/config", "path to folder with configs")
	flag.StringVar(&userId, "user", "", "user id to put in the token subject")
	flag.Parse()

	if userId == "" {
		log.Fatal("-user is required")
	}

	cfg := config.MustLoad(configFolder)
	token, err := jwt.New(cfg.JwtKey(), cfg.JwtTTL()).NewToken(userId)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}

	fmt.Println("=================================================")
	fmt.Printf("  Access token for %s (valid %s)\n", userId, cfg.JwtTTL())
	fmt.Println("=================================================")
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Use it as a header:")
	fmt.Printf("Authorization: Bearer %s\n", token)
}
