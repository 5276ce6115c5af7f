// Package main implements the video compression server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alharthydev/compresspro/config"
	"github.com/alharthydev/compresspro/handlers"
	"github.com/alharthydev/compresspro/internal/encode"
	"github.com/alharthydev/compresspro/internal/hardware"
	"github.com/alharthydev/compresspro/internal/job"
	"github.com/alharthydev/compresspro/internal/probe"
	"github.com/alharthydev/compresspro/internal/settings"
	"github.com/alharthydev/compresspro/internal/types"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	cfg, err := config.New()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to parse log level")
	}
	logrus.SetLevel(level)

	logger := logrus.StandardLogger()

	presets, err := config.LoadPresets(cfg.PresetsPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load quality presets")
	}

	settingsPath := cfg.SettingsPath
	if settingsPath == "" {
		settingsPath, err = settings.DefaultPath()
		if err != nil {
			logger.WithError(err).Fatal("Failed to locate settings file")
		}
	}
	store := settings.NewStore(settingsPath, logger)

	// Warm the capability cache so the first /system call is instant and
	// the detected backends show up in the startup log.
	detector := hardware.NewDetector(cfg.FFmpegPath, logger)
	detector.Detect()

	prober := probe.NewProber(cfg.FFprobePath, logger)
	opener := encode.NewFFmpegOpener(cfg.FFmpegPath, logger)
	manager := job.NewManager(opener, prober, store, logger)

	router := handlers.NewRouter(manager, detector, store, presets, types.HardwareType(cfg.Hardware), logger)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  120 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutting down server...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("Failed to gracefully shutdown")
		}
	}()

	logger.WithField("port", cfg.Port).Info("Starting compression server")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Fatal("Failed to start server")
	}

	// Cancel any in-flight job and wait for its encoder to release.
	manager.Shutdown()
	logger.Info("Server stopped")
}
