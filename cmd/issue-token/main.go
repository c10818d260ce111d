package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/noah-isme/qr-attendance-api/internal/models"
	"github.com/noah-isme/qr-attendance-api/internal/service"
	"github.com/noah-isme/qr-attendance-api/pkg/config"
	"github.com/noah-isme/qr-attendance-api/pkg/logger"
)

func main() {
	var (
		subject string
		name    string
		expiry  time.Duration
	)

	flag.StringVar(&subject, "subject", "", "Instructor identifier stored as the token subject")
	flag.StringVar(&name, "name", "", "Instructor display name")
	flag.DurationVar(&expiry, "expiry", 0, "Token lifetime (defaults to JWT_EXPIRATION)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if expiry <= 0 {
		expiry = cfg.JWT.Expiration
	}
	auth := service.NewAuthService(nil, logr, service.AuthConfig{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		Expiry: expiry,
	})

	token, expiresAt, err := auth.Issue(models.IssueTokenRequest{Subject: subject, Name: name})
	if err != nil {
		fmt.Fprintf(os.Stderr, "issue token: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}
	if !cfg.JWT.Enabled {
		fmt.Fprintln(os.Stderr, "warning: ENABLE_INSTRUCTOR_AUTH is off, the API will not ask for this token")
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires at %s\n", expiresAt.Format(time.RFC3339))
}
