package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"rqwatch/internal/api"
	"rqwatch/internal/config"
	"rqwatch/internal/log"
	"rqwatch/internal/ui"
	"rqwatch/internal/upload"
	"rqwatch/internal/watch"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "rqwatch",
		Short: "Live status watcher for an rqbit-style torrent service",
		Long: "rqwatch follows the torrents of a remote rqbit-style service: it polls\n" +
			"the torrent list, tracks per-torrent progress with an adaptive cadence,\n" +
			"and adds new torrents with per-file selection.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return run(cmd, cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("server", "", "Base URL of the torrent service (default http://127.0.0.1:3030)")
	flags.String("log-level", "", "Log level (debug, info, warn, error, fatal, none)")
	flags.String("log-file", "", "Log file used while the TUI owns the terminal")
	flags.Bool("no-tui", false, "Run headless: poll and log, no TUI")
	flags.String("add", "", "Add a magnet link or URL with all files and exit")
	flags.String("add-file", "", "Add a local .torrent file with all files and exit")

	v.BindPFlag("server_url", flags.Lookup("server"))
	v.BindPFlag("log_level", flags.Lookup("log-level"))
	v.BindPFlag("log_file", flags.Lookup("log-file"))
	v.BindPFlag("no_tui", flags.Lookup("no-tui"))

	return cmd
}

func run(cmd *cobra.Command, cfg *config.Config) error {
	log.SetLevel(log.LogLevel(cfg.LogLevel))

	client := api.NewClient(cfg.ServerURL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addMagnet, _ := cmd.Flags().GetString("add")
	addFile, _ := cmd.Flags().GetString("add-file")
	if addMagnet != "" || addFile != "" {
		return runAdd(ctx, client, addMagnet, addFile)
	}

	registry := watch.NewRegistry(client, watch.DefaultIntervals(), nil)

	if cfg.NoTUI {
		registry.Start(ctx)
		defer registry.Stop()
		log.Info("main").
			Str("server", cfg.ServerURL).
			Msg("Watching torrents (headless)")
		<-ctx.Done()
		return nil
	}

	// The TUI owns the terminal; log lines would corrupt the screen.
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		log.SetOutput(f)
	} else {
		log.Discard()
	}

	slot := &ui.ErrorSlot{}
	client.SetErrorSink(slot)
	session := upload.NewSession(client)

	registry.Start(ctx)
	defer registry.Stop()

	model := ui.NewModel(ctx, registry, session, slot)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

// runAdd is the one-shot add mode: preview the payload, then confirm with
// every file included.
func runAdd(ctx context.Context, client *api.Client, magnet, file string) error {
	var payload *upload.Payload
	var err error
	if file != "" {
		payload, err = upload.FilePayload(file)
	} else {
		payload, err = upload.MagnetPayload(magnet)
	}
	if err != nil {
		return err
	}

	session := upload.NewSession(client)
	if err := session.Preview(ctx, payload); err != nil {
		return fmt.Errorf("preview: %w", err)
	}

	manifest := session.Manifest()
	log.Info("main").
		Str("name", payload.Name).
		Int("files", len(manifest.Files)).
		Msg("Adding torrent with all files")

	if err := session.Confirm(ctx); err != nil {
		return fmt.Errorf("add: %w", err)
	}
	return nil
}
