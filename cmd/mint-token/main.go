package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/fuelcredit/fuelcredit-api/internal/config"
	"github.com/fuelcredit/fuelcredit-api/internal/pkg/jwt"
)

// mint-token issues a signed access token for a driver, station or admin
// subject. Intended for local development and integration testing against a
// running API.
func main() {
	subject := flag.String("subject", "", "subject UUID (driver, station or admin id)")
	role := flag.String("role", jwt.RoleDriver, "token role: driver, station or admin")
	flag.Parse()

	if *subject == "" {
		log.Fatal("missing -subject")
	}
	subjectID, err := uuid.Parse(*subject)
	if err != nil {
		log.Fatalf("invalid -subject: %v", err)
	}

	switch *role {
	case jwt.RoleDriver, jwt.RoleStation, jwt.RoleAdmin:
	default:
		log.Fatalf("unknown role %q", *role)
	}

	cfg := config.Load()
	svc := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)

	token, err := svc.GenerateAccessToken(subjectID, *role)
	if err != nil {
		log.Fatalf("failed to sign token: %v", err)
	}
	fmt.Println(token)
}
