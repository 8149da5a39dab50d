package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shandysiswandi/researchflow/internal/app"
)

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "researchflow",
	Short:        "Multi-agent research report service",
	Long:         "researchflow searches the web, drafts a report with an LLM and has it reviewed, using a researcher, writer and editor pipeline.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

var researchDepth string

var researchCmd = &cobra.Command{
	Use:   "research <topic>",
	Short: "Run one research in-process and print the markdown report",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		topic := strings.Join(args, " ")

		if err := app.RunResearch(ctx, configPath, topic, researchDepth, cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("research failed: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default /config/config.yaml, ./config/config.yaml when LOCAL=true)")
	researchCmd.Flags().StringVarP(&researchDepth, "depth", "d", "medium", "Research depth: quick, medium or deep")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(researchCmd)
}

func serve() error {
	application := app.New(configPath) // Initialize the application
	wait := application.Start()        // Start the application and wait for the termination signal
	<-wait                             // Wait for the application to receive a termination signal

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	application.Stop(ctx) // Stop the application gracefully, draining running research

	return nil
}
