package config

import (
	"fmt"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to bookmap.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to bookmap! Let's configure your catalog.")
	fmt.Println()

	cfg := DefaultConfig()

	portPrompt := promptui.Prompt{
		Label:   "Server port",
		Default: strconv.Itoa(cfg.Server.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 65535 {
				return fmt.Errorf("enter a port between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port prompt: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	dataPrompt := promptui.Prompt{
		Label:   "Data directory (SQLite database)",
		Default: cfg.Server.DataDir,
	}
	if cfg.Server.DataDir, err = dataPrompt.Run(); err != nil {
		return nil, fmt.Errorf("data dir prompt: %w", err)
	}

	uploadsPrompt := promptui.Prompt{
		Label:   "Uploads directory (PDF files)",
		Default: cfg.Server.UploadsDir,
	}
	if cfg.Server.UploadsDir, err = uploadsPrompt.Run(); err != nil {
		return nil, fmt.Errorf("uploads dir prompt: %w", err)
	}

	geocoderPrompt := promptui.Select{
		Label: "Geocoding service",
		Items: []string{
			"https://nominatim.openstreetmap.org",
			"custom",
		},
	}
	_, choice, err := geocoderPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("geocoder selection: %w", err)
	}
	if choice == "custom" {
		customPrompt := promptui.Prompt{Label: "Geocoder base URL"}
		if choice, err = customPrompt.Run(); err != nil {
			return nil, fmt.Errorf("geocoder prompt: %w", err)
		}
	}
	cfg.Geocoder.BaseURL = choice

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := cfg.Save("bookmap.yml"); err != nil {
		return nil, err
	}

	fmt.Println()
	fmt.Println("Configuration saved to bookmap.yml")
	return cfg, nil
}
