// Command token mints bearer tokens for callers of the sync API.
//
//	token -subject erp-host -scopes orders:read,orders:write -ttl 720h
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/erp/focco-sync/internal/infrastructure/auth"
	"github.com/erp/focco-sync/internal/infrastructure/config"
)

func main() {
	var (
		configPath string
		subject    string
		scopes     string
		ttl        time.Duration
	)
	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.StringVar(&subject, "subject", "", "Token subject, usually the calling system")
	flag.StringVar(&scopes, "scopes", strings.Join(auth.AllScopes(), ","), "Comma separated scopes")
	flag.DurationVar(&ttl, "ttl", 0, "Token lifetime (default: jwt.access_token_expiration)")
	flag.Parse()

	if subject == "" {
		fmt.Fprintln(os.Stderr, "-subject is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if cfg.JWT.Secret == "" {
		fmt.Fprintln(os.Stderr, "jwt.secret is not configured")
		os.Exit(1)
	}

	var list []string
	for _, s := range strings.Split(scopes, ",") {
		if s = strings.TrimSpace(s); s != "" {
			list = append(list, s)
		}
	}

	token, err := auth.NewJWTService(cfg.JWT).GenerateToken(subject, list, ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to generate token: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "expires at %s\n", token.ExpiresAt.Format(time.RFC3339))
	fmt.Println(token.AccessToken)
}
