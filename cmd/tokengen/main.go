// Command tokengen signs an actor token for local testing and operator use.
// Identity is issued upstream in production; this tool only mirrors its claims.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/config"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var (
		identity    auth.Identity
		clientScope string
	)
	flagSet := pflag.NewFlagSet("tokengen", pflag.ContinueOnError)
	flagSet.StringVar(&identity.ID, "id", "", "actor id (required)")
	flagSet.StringVar(&identity.Name, "name", "", "display name")
	flagSet.StringVar(&identity.Email, "email", "", "contact email")
	flagSet.StringVar(&identity.Profile, "profile", "", "actor profile, e.g. cliente, soporte, admin (required)")
	flagSet.StringVar(&clientScope, "client-scope", "", "client scope id")
	flagSet.StringVar(&cfg.Auth.JWTSecret, "secret", cfg.Auth.JWTSecret, "signing secret (default: $AUTH_JWT_SECRET)")
	flagSet.IntVar(&cfg.Auth.AccessTokenTTLMinutes, "ttl", cfg.Auth.AccessTokenTTLMinutes, "token lifetime in minutes")
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if clientScope != "" {
		identity.ClientScopeID = &clientScope
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	token, expires, err := tokens.GenerateToken(identity)
	if err != nil {
		return err
	}
	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires %s\n", expires.Format(time.RFC3339))
	return nil
}
