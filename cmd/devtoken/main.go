package main

import (
	"fmt"
	"os"
	"time"
	"vmtracker/config"
	"vmtracker/internal/models"
	"vmtracker/internal/services"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/juju/clock"
	"github.com/spf13/cobra"
)

// devtoken signs a bearer token with the configured JWT secret so the API
// can be exercised locally without an identity provider.
func main() {
	log := logger.New("devtoken").Function("main")

	if err := rootCmd().Execute(); err != nil {
		log.Er("failed to mint token", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		subject  string
		username string
		email    string
		admin    bool
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:           "devtoken",
		Short:         "Mint a development bearer token",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := config.New()
			if err != nil {
				return err
			}

			auth, err := services.NewAuthService(config, clock.WallClock)
			if err != nil {
				return err
			}

			role := models.RoleUser
			if admin {
				role = models.RoleAdmin
			}

			token, err := auth.SignToken(services.Claims{
				Username:         username,
				Email:            email,
				Role:             string(role),
				RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
			}, ttl)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&subject, "sub", "dev-user", "token subject")
	cmd.Flags().StringVar(&username, "username", "driver", "username claim")
	cmd.Flags().StringVar(&email, "email", "driver@example.com", "email claim")
	cmd.Flags().BoolVar(&admin, "admin", false, "issue an Admin role token")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")

	return cmd
}
