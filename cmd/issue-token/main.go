package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/forgo/questline/internal/config"
	"github.com/forgo/questline/internal/model"
	"github.com/forgo/questline/internal/policy"
	"github.com/forgo/questline/pkg/jwt"
)

func main() {
	_ = godotenv.Load()

	// Flags for customization
	userID := flag.String("user", "user:dev", "User ID for the token")
	email := flag.String("email", "dev@questline.local", "Email for the token")
	role := flag.String("role", model.RoleMember, "Role claim (user, member, moderator, admin)")
	tier := flag.String("tier", policy.TierFree, "Subscription tier claim")
	guilds := flag.String("guilds", "", "Comma-separated guild IDs")
	expMins := flag.Int("exp", 60*24, "Token expiration in minutes (default: 1 day)")
	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	// Same secret resolution as the server: .env, CONFIG_FILE, env, JWT_SECRET_FILE
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if _, ok := policy.DefaultTiers()[*tier]; !ok {
		fmt.Fprintf(os.Stderr, "Unknown tier %q\n", *tier)
		os.Exit(1)
	}

	jwtService, err := jwt.NewService(jwt.Config{
		Secret:         cfg.JWT.Secret,
		Issuer:         cfg.JWT.Issuer,
		ExpirationMins: *expMins,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating JWT service: %v\n", err)
		fmt.Fprintf(os.Stderr, "\nSet JWT_SECRET or JWT_SECRET_FILE first\n")
		os.Exit(1)
	}

	claims := jwt.Claims{
		UserID:           *userID,
		Email:            *email,
		Role:             *role,
		SubscriptionTier: *tier,
		Guilds:           splitGuilds(*guilds),
	}

	token, err := jwtService.Sign(claims)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error signing token: %v\n", err)
		os.Exit(1)
	}

	if *outputJSON {
		output := map[string]any{
			"access_token":     token,
			"token_type":       "Bearer",
			"expires_in":       *expMins * 60,
			"userId":           *userID,
			"email":            *email,
			"role":             *role,
			"subscriptionTier": *tier,
			"guilds":           claims.Guilds,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(output)
		return
	}

	expTime := time.Now().Add(time.Duration(*expMins) * time.Minute)
	fmt.Println("Token Issued")
	fmt.Println("============")
	fmt.Printf("User ID:  %s\n", *userID)
	fmt.Printf("Role:     %s\n", *role)
	fmt.Printf("Tier:     %s\n", *tier)
	fmt.Printf("Guilds:   %s\n", strings.Join(claims.Guilds, ", "))
	fmt.Printf("Expires:  %s\n", expTime.Format(time.RFC3339))
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  curl -H 'Authorization: Bearer <token>' http://localhost:%s/v1/auth/me\n", cfg.Server.Port)
	fmt.Printf("  websocat 'ws://localhost:%s/v1/socket?token=<token>'\n", cfg.Server.Port)
}

func splitGuilds(s string) []string {
	var out []string
	for _, g := range strings.Split(s, ",") {
		if g = strings.TrimSpace(g); g != "" {
			out = append(out, g)
		}
	}
	return out
}
