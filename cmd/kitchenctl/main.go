package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/khuong2924/smart-order/internal/auth"
	"github.com/khuong2924/smart-order/internal/config"
	"github.com/khuong2924/smart-order/internal/db"
	"github.com/khuong2924/smart-order/internal/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "kitchenctl",
		Short:         "Operator tooling for the menu item availability service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(newTokenCmd(), newSchemaCmd())
	return root
}

func newTokenCmd() *cobra.Command {
	var (
		staffID string
		role    string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a staff bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.TokenTTL
			}

			issuer, err := auth.NewTokenIssuer(cfg.JWTSecret, ttl)
			if err != nil {
				return err
			}

			token, err := issuer.Issue(staffID, role)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&staffID, "staff", "", "staff id to embed in the token")
	cmd.Flags().StringVar(&role, "role", auth.RoleKitchen, "role: KITCHEN or ADMIN")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to TOKEN_TTL)")
	_ = cmd.MarkFlagRequired("staff")

	return cmd
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Create the availability tables in DATABASE_URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger.Setup(cfg.LogLevel, cfg.AppEnv)

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			// ConnectPostgres applies the schema on connect
			pool, err := db.ConnectPostgres(ctx, cfg.Database)
			if err != nil {
				return err
			}
			pool.Close()

			log.Info().Msg("schema is up to date")
			return nil
		},
	}
}
