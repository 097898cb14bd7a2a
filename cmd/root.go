package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fieldreport/internal/capture"

	"github.com/joho/godotenv"
)

// Config holds CLI configuration.
type Config struct {
	APIURL        string
	Token         string
	DBPath        string
	DataDir       string
	CameraCmd     string
	GalleryDir    string
	DeliveryFile  string
	SubmitTimeout time.Duration
	LogPath       string
	LogLevel      string

	ExportPath       string
	ResetPermissions bool
	Version          bool
}

// ParseFlags parses command-line flags and returns configuration.
func ParseFlags(args []string) (*Config, error) {
	config := &Config{}

	// Load .env files first so env-based defaults work with existing flag parsing.
	for _, path := range []string{".env", ".env.local"} {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	flags := flag.NewFlagSet("fieldreport", flag.ContinueOnError)
	flags.StringVar(&config.APIURL, "api", os.Getenv("FIELDREPORT_API_URL"), "Backend base URL (or set FIELDREPORT_API_URL)")
	flags.StringVar(&config.Token, "token", os.Getenv("FIELDREPORT_TOKEN"), "Bearer token (or set FIELDREPORT_TOKEN)")
	flags.StringVar(&config.DBPath, "db", "", "Path to SQLite database file (default: ~/.fieldreport/fieldreport.db)")
	flags.StringVar(&config.CameraCmd, "camera-cmd", envOr("FIELDREPORT_CAMERA_CMD", capture.DefaultCameraCommand), "Camera capture command; {out} is replaced by the output path")
	flags.StringVar(&config.GalleryDir, "gallery", os.Getenv("FIELDREPORT_GALLERY_DIR"), "Gallery directory (default: ~/Pictures)")
	flags.StringVar(&config.DeliveryFile, "delivery", "", "Open the report screen for a delivery JSON file")
	flags.DurationVar(&config.SubmitTimeout, "submit-timeout", 0, "HTTP timeout for report submissions (0 waits indefinitely)")
	flags.StringVar(&config.LogPath, "log", "", "Log file path (default: ~/.fieldreport/fieldreport.log)")
	flags.StringVar(&config.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flags.StringVar(&config.ExportPath, "export", "", "Export submission history to an .xlsx file and exit")
	flags.BoolVar(&config.ResetPermissions, "reset-permissions", false, "Forget stored camera and gallery permission decisions")
	flags.BoolVar(&config.Version, "version", false, "Print version and exit")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if config.Version {
		return config, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	// Set default DB path if not specified
	if config.DBPath == "" {
		config.DataDir = filepath.Join(home, ".fieldreport")
		config.DBPath = filepath.Join(config.DataDir, "fieldreport.db")
	} else {
		config.DataDir = filepath.Dir(config.DBPath)
	}
	if err := os.MkdirAll(config.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if config.LogPath == "" {
		config.LogPath = filepath.Join(config.DataDir, "fieldreport.log")
	}
	if config.GalleryDir == "" {
		config.GalleryDir = filepath.Join(home, "Pictures")
	}

	// Export and permission reset never talk to the backend.
	if config.ExportPath != "" || config.ResetPermissions {
		return config, nil
	}

	settings, err := loadOnboardingSettings(config.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load onboarding settings: %w", err)
	}
	if config.APIURL == "" && shouldRunOnboarding(settings) {
		settings, err = runOnboarding(config.DataDir, settings)
		if err != nil {
			return nil, fmt.Errorf("failed to run onboarding: %w", err)
		}
	}
	if config.APIURL == "" {
		config.APIURL = settings.APIURL
	}
	if config.Token == "" {
		token, err := loadToken(config.DataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load token: %w", err)
		}
		config.Token = token
	}

	config.APIURL = strings.TrimRight(strings.TrimSpace(config.APIURL), "/")
	if config.APIURL == "" {
		return nil, errors.New("no backend URL configured: pass -api or set FIELDREPORT_API_URL")
	}
	return config, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
