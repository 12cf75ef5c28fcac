package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"panelforge/internal/app"
)

func main() {
	cfg := app.DefaultConfig()
	flag.StringVar(&cfg.CatalogPath, "catalog", cfg.CatalogPath, "path to the panel catalog yaml")
	flag.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory for the layout database (defaults to ~/.local/share/panelforge)")
	flag.StringVar(&cfg.LogPath, "log", cfg.LogPath, "write JSON logs to this file")
	flag.BoolVar(&cfg.ASCIIOnly, "ascii", cfg.ASCIIOnly, "draw with ASCII borders only")
	flag.BoolVar(&cfg.Offline, "offline", cfg.Offline, "skip the published-sheet threshold fetch")
	flag.StringVar(&cfg.UI.StyleVariant, "style", cfg.UI.StyleVariant, "ui style variant: modern_arcade, cozy_clean, retro_terminal")
	flag.StringVar(&cfg.UI.MotionLevel, "motion", cfg.UI.MotionLevel, "ui motion level: full, reduced, off")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "panelforge:", err)
		os.Exit(2)
	}

	a, err := app.New(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "panelforge:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "panelforge:", err)
		os.Exit(1)
	}
}
