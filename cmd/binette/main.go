// Command binette manages binette database files: creating them, checking
// their identity and schema version, and upgrading older files in place.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/binette/binette/internal/appfile"
	"github.com/binette/binette/internal/dao"
	"github.com/binette/binette/internal/log"
	"github.com/binette/binette/internal/version"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

// Config represents the configuration for the binette CLI.
type Config struct {
	// FilePath is the path to the database file.
	FilePath string
	// LogLevel is the logging level.
	LogLevel string
	// NoBackup disables the pre-upgrade backup copy.
	NoBackup bool
}

// setupLogging applies the configured log level.
func setupLogging(config Config) error {
	level, err := zerolog.ParseLevel(config.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	log.SetLevel(level)
	return nil
}

// backupFile copies the file at path to path.bak before an upgrade.
// Upgrades take no backup of their own, so the CLI makes one for the user.
func backupFile(path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file for backup: %w", err)
	}
	defer src.Close()

	backupPath := path + ".bak"
	dst, err := os.Create(backupPath)
	if err != nil {
		return "", fmt.Errorf("failed to create backup file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to copy file to backup: %w", err)
	}

	if err := dst.Sync(); err != nil {
		return "", fmt.Errorf("failed to sync backup file: %w", err)
	}

	return backupPath, nil
}

// runInit opens (and if needed initializes) the file.
func runInit(config Config) error {
	f, err := appfile.Open(config.FilePath)
	if err != nil {
		return err
	}
	defer f.Close()

	log.Info().Str("file", f.Path()).Msg("File is ready")
	return nil
}

// runCheck opens the file and reports its version state and metadata.
func runCheck(config Config) error {
	f, err := appfile.Open(config.FilePath)
	if err != nil {
		return err
	}
	defer f.Close()

	ord, err := f.CompareVersion()
	if err != nil {
		return err
	}

	event := log.Info().Str("file", f.Path()).Stringer("schema", ord)

	// The metadata row is diagnostic only; show it when present.
	record, err := dao.NewMetadataDAO(f.DB()).Get()
	switch {
	case err == nil:
		event = event.Str("created_by", record.Version)
		if record.UpgradedFrom.Valid {
			event = event.Str("upgraded_from", record.UpgradedFrom.String)
		}
	case !errors.Is(err, dao.ErrNotFound):
		return err
	}

	switch ord {
	case appfile.Less:
		event.Msg("File is at an older schema version, run upgrade")
	case appfile.Greater:
		event.Msg("File was created by a newer build, upgrade binette to use it")
	default:
		event.Msg("File is at the current schema version")
	}

	return nil
}

// runUpgrade backs the file up, then upgrades it to the current schema
// version. Files newer than this build are refused.
func runUpgrade(config Config) error {
	f, err := appfile.Open(config.FilePath)
	if err != nil {
		return err
	}
	defer f.Close()

	ord, err := f.CompareVersion()
	if err != nil {
		return err
	}

	switch ord {
	case appfile.Equal:
		log.Info().Str("file", f.Path()).Msg("File is already at the current schema version")
		return nil
	case appfile.Greater:
		return fmt.Errorf("file %s was created by a newer build, not upgrading", f.Path())
	}

	if !config.NoBackup {
		backupPath, err := backupFile(config.FilePath)
		if err != nil {
			return err
		}
		log.Info().Str("backup", backupPath).Msg("Backup created")
	}

	if err := f.Upgrade(); err != nil {
		return err
	}

	log.Info().Str("file", f.Path()).Msg("Upgrade complete")
	return nil
}

func main() {
	var config Config

	app := &cli.App{
		Name:    "binette",
		Usage:   "binette database file management",
		Version: version.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Aliases:     []string{"l"},
				Usage:       "Logging level (debug, info, warn, error)",
				Value:       "info",
				Destination: &config.LogLevel,
			},
		},
		Before: func(c *cli.Context) error {
			return setupLogging(config)
		},
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Create and initialize a database file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "file",
						Aliases:     []string{"f"},
						Usage:       "Path to the database file",
						Required:    true,
						Destination: &config.FilePath,
					},
				},
				Action: func(c *cli.Context) error {
					return runInit(config)
				},
			},
			{
				Name:  "check",
				Usage: "Check a file's identity and schema version",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "file",
						Aliases:     []string{"f"},
						Usage:       "Path to the database file",
						Required:    true,
						Destination: &config.FilePath,
					},
				},
				Action: func(c *cli.Context) error {
					return runCheck(config)
				},
			},
			{
				Name:  "upgrade",
				Usage: "Upgrade a file to the current schema version",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "file",
						Aliases:     []string{"f"},
						Usage:       "Path to the database file",
						Required:    true,
						Destination: &config.FilePath,
					},
					&cli.BoolFlag{
						Name:        "no-backup",
						Usage:       "Skip the pre-upgrade backup copy",
						Destination: &config.NoBackup,
					},
				},
				Action: func(c *cli.Context) error {
					return runUpgrade(config)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Error().Err(err).Msg("binette failed")
		os.Exit(1)
	}
}
