package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nguyentranbao-ct/chat-notify/internal/app"
	"github.com/nguyentranbao-ct/chat-notify/internal/config"
	"github.com/nguyentranbao-ct/chat-notify/internal/repo/identity"
	log "github.com/nguyentranbao-ct/chat-notify/pkg/logger/log"
)

var rootCmd = &cobra.Command{
	Use:           "chat-notify",
	Short:         "Chat backend with read state, badges and push fan-out",
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		app.Serve().Run()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the RPC server",
	Run: func(cmd *cobra.Command, args []string) {
		app.Serve().Run()
	},
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume fan-out jobs from Kafka",
	Run: func(cmd *cobra.Command, args []string) {
		app.Worker().Run()
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token <uid>",
	Short: "Issue a bearer token for the jwt auth provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ttl, err := cmd.Flags().GetDuration("ttl")
		if err != nil {
			return err
		}
		conf, err := config.Load()
		if err != nil {
			return err
		}
		if conf.Auth.Provider != "jwt" {
			return fmt.Errorf("tokens can only be issued with AUTH_PROVIDER=jwt, got %q", conf.Auth.Provider)
		}
		token, err := identity.NewJWTVerifier(conf.Auth.JWTSecret, conf.Auth.JWTIssuer).Sign(args[0], ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "token lifetime")
	rootCmd.AddCommand(serveCmd, workerCmd, tokenCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
