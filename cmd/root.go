// Package cmd wires the Cobra command tree.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fbrefcrawl",
		Short: "Crawl football statistics from fbref.com into Postgres.",
		Long: `fbrefcrawl walks league season histories, squads, and rosters on
fbref.com and upserts the extracted leagues, seasons, clubs, players, and
player-season statistics into a relational store.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a config file")
	cmd.AddCommand(newCrawlCmd())
	return cmd
}

// Execute runs the CLI with a signal-cancelled root context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
