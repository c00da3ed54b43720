package app

import (
	"context"
	"fmt"

	"github.com/five82/zowiebox/internal/config"
	"github.com/five82/zowiebox/internal/entries"
	"github.com/five82/zowiebox/internal/zowie"
)

// AddEntry validates host against the device and installs it.
func AddEntry(ctx context.Context, configPath, host string, port int) (entries.Entry, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return entries.Entry{}, fmt.Errorf("load config: %w", err)
	}
	validator := entries.DeviceValidator(zowie.WithTimeout(cfg.Device.Timeout()))
	return entries.NewStore(cfg.EntriesPath).Add(ctx, validator, host, port)
}

// RemoveEntry uninstalls the entry with id.
func RemoveEntry(configPath, id string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	return entries.NewStore(cfg.EntriesPath).Remove(id)
}

// ListEntries returns the installed entries.
func ListEntries(configPath string) ([]entries.Entry, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return entries.NewStore(cfg.EntriesPath).Load()
}
