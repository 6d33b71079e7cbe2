package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/nerrad567/gray-logic-transducers/internal/auth"
	"github.com/nerrad567/gray-logic-transducers/internal/infrastructure/config"
)

var errNoSecret = errors.New("no JWT secret: pass --secret, set GRAYLOGIC_JWT_SECRET, or configure security.jwt.secret")

func issueAction(c *cli.Context) error {
	secret, ttl, err := resolveSecret(c)
	if err != nil {
		return err
	}
	if c.IsSet("ttl") {
		ttl = c.Duration("ttl")
	}

	role := auth.Role(c.String("role"))
	if !auth.IsValidRole(role) {
		return fmt.Errorf("%w: %q", auth.ErrInvalidRole, role)
	}

	token, err := auth.GenerateAccessToken(c.String("subject"), role, secret, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, token)
	return nil
}

func verifyAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("verify takes exactly one TOKEN argument", 2)
	}
	secret, _, err := resolveSecret(c)
	if err != nil {
		return err
	}

	claims, err := auth.ParseToken(c.Args().First(), secret)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "subject: %s\nrole: %s\nexpires: %s\n",
		claims.Subject, claims.Role, claims.ExpiresAt.Time.UTC().Format(time.RFC3339))
	return nil
}

// resolveSecret returns the signing secret and default TTL. --secret wins
// over the config file; the TTL always comes from config when one is given.
func resolveSecret(c *cli.Context) (string, time.Duration, error) {
	secret := c.String("secret")
	ttl := auth.DefaultAccessTokenTTL

	if path := c.String("config"); path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return "", 0, err
		}
		if secret == "" {
			secret = cfg.Security.JWT.Secret
		}
		if configured := cfg.Security.JWT.GetAccessTokenTTL(); configured > 0 {
			ttl = configured
		}
	}

	if secret == "" {
		return "", 0, errNoSecret
	}
	return secret, ttl, nil
}
