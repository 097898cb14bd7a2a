package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"fieldreport/cmd"
	"fieldreport/internal/api"
	"fieldreport/internal/capture"
	"fieldreport/internal/db"
	"fieldreport/internal/export"
	"fieldreport/internal/logging"
	"fieldreport/internal/model"
	"fieldreport/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
)

// version is set at build time via -ldflags
var version = "dev"

func main() {
	// Parse CLI flags
	config, err := cmd.ParseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if config.Version {
		fmt.Println("fieldreport", version)
		return
	}

	logger, closer, err := logging.New(config.LogPath, config.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	// Open database
	database, err := db.Open(config.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	if config.ResetPermissions {
		if err := db.ResetPermissions(database); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to reset permissions: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Camera and gallery permissions reset")
		if config.ExportPath == "" {
			return
		}
	}

	if config.ExportPath != "" {
		subs, err := db.ListSubmissions(database)
		if err == nil {
			err = export.History(subs, config.ExportPath)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to export history: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Exported %d submissions to %s\n", len(subs), config.ExportPath)
		return
	}

	var delivery *model.Delivery
	if config.DeliveryFile != "" {
		d, err := readDelivery(config.DeliveryFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read delivery: %v\n", err)
			os.Exit(1)
		}
		delivery = &d
	}

	client := api.NewClient(config.APIURL,
		api.WithToken(config.Token),
		api.WithSubmitTimeout(config.SubmitTimeout),
	)
	logger.WithField("api", client.BaseURL()).Info("fieldreport starting")

	opts := ui.Options{
		DB:          database,
		Backend:     client,
		Logger:      logger,
		Camera:      capture.NewCamera(config.CameraCmd, filepath.Join(config.DataDir, "captures")),
		Gallery:     capture.NewGallery(config.GalleryDir),
		Permissions: capture.NewPermissions(database),
		DataDir:     config.DataDir,
		Delivery:    delivery,
	}

	// Create and run Bubble Tea app
	p := tea.NewProgram(ui.New(opts), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.WithError(err).Error("app exited with error")
		fmt.Fprintf(os.Stderr, "Error running app: %v\n", err)
		os.Exit(1)
	}
}

func readDelivery(path string) (model.Delivery, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Delivery{}, err
	}
	var d model.Delivery
	if err := json.Unmarshal(data, &d); err != nil {
		return model.Delivery{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return d, nil
}
