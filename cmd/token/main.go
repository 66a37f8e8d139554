// Command token prints a bearer token signed with AUTH_JWT_SECRET.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"reviewledger/internal/config"
	"reviewledger/internal/middleware"
)

func main() {
	subject := flag.String("sub", "owner", "token subject recorded as the audit actor")
	ttl := flag.Duration("ttl", 30*24*time.Hour, "token lifetime")
	flag.Parse()

	cfg := config.Load()
	if cfg.AuthJWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is not set")
	}

	tok, err := middleware.IssueToken(cfg.AuthJWTSecret, *subject, *ttl)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}
	fmt.Println(tok)
}
