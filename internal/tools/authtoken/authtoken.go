// Package authtoken issues signed API bearer tokens for operators and
// entrants.
package authtoken

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fairdraw/fairdraw/internal/api"
)

// Config holds configuration for token generation.
type Config struct {
	Secret  string
	PartyID string
	Role    string
	TTL     time.Duration
}

// ParseConfig parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{Role: api.RoleEntrant, TTL: 24 * time.Hour}
	fs.StringVar(&cfg.Secret, "secret", cfg.Secret, "JWT signing secret")
	fs.StringVar(&cfg.PartyID, "party", cfg.PartyID, "party identifier embedded in the token")
	fs.StringVar(&cfg.Role, "role", cfg.Role, "token role: operator or entrant")
	fs.DurationVar(&cfg.TTL, "ttl", cfg.TTL, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run issues the token and writes it to out.
func Run(cfg Config, out io.Writer) error {
	if out == nil {
		return errors.New("output is required")
	}
	if strings.TrimSpace(cfg.Secret) == "" {
		return errors.New("secret is required")
	}
	if strings.TrimSpace(cfg.PartyID) == "" {
		return errors.New("party is required")
	}
	if cfg.Role != api.RoleOperator && cfg.Role != api.RoleEntrant {
		return fmt.Errorf("role must be %s or %s", api.RoleOperator, api.RoleEntrant)
	}
	if cfg.TTL <= 0 {
		return errors.New("ttl must be greater than zero")
	}

	token, err := api.IssueToken([]byte(cfg.Secret), cfg.PartyID, cfg.Role, cfg.TTL)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, token)
	return err
}
