package main

import (
	"context"
	"os"

	"fyne.io/fyne/v2/app"

	"github.com/Alexander-D-Karpov/ampwave/internal/config"
	"github.com/Alexander-D-Karpov/ampwave/internal/logging"
	"github.com/Alexander-D-Karpov/ampwave/internal/ui"
)

func main() {
	cfg := config.DefaultMobileConfig()
	base := logging.New(os.Stderr, false)
	logger := logging.Component(base, "main")

	// Mobile builds open without a track; the fallback stays until one is
	// handed over through AMPWAVE_TRACK.
	ampApp, err := ui.NewApp(context.Background(), app.New(), cfg, os.Getenv("AMPWAVE_TRACK"), base)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create app")
	}

	ampApp.ShowAndRun()
}
