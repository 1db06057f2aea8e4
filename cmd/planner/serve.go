package main

import (
	"os/signal"
	"syscall"

	"github.com/amonks/taskplanner/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web pages and the JSON API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var (
	serveAddr    string
	serveBaseURL string
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, 127.0.0.1:8080)")
	serveCmd.Flags().StringVar(&serveBaseURL, "base-url", "", "External base URL used in emailed links")
	addBaseURLFlagAliases(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if serveBaseURL != "" {
		cfg.Server.BaseURL = serveBaseURL
	}

	p, err := openPlannerWithConfig(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	srv, err := server.NewServer(server.Options{Planner: p})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
	defer stop()
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}
