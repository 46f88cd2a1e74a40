package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"taxlaw-backend/app"
	"taxlaw-backend/config"
	"taxlaw-backend/extractor"
	"taxlaw-backend/logger"
)

var (
	cfgFile string
	dataDir string
)

var rootCmd = &cobra.Command{
	Use:   "ingest-laws",
	Short: "Index Bangladesh tax statutes for the assistant",
	Long: `ingest-laws chunks and embeds statute files (*.txt, *.pdf) from a data
directory and its laws/ subdirectory into the configured vector index.

Settings come from .env, an optional --config YAML file and the environment,
exactly as for the server.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Ingest every law file under --dir",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings()
		if err != nil {
			return err
		}
		if settings.VectorIndex == "memory" {
			return errMemoryIndex
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		files, err := collectLawFiles(dataDir)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			logger.Warn("No law files found", zap.String("dir", dataDir))
			return nil
		}

		application, err := app.New(ctx, settings)
		if err != nil {
			return fmt.Errorf("failed to initialize: %w", err)
		}
		defer application.Close(context.Background())

		var totalChunks, failed int
		for _, path := range files {
			n, err := ingestFile(ctx, application, path)
			if err != nil {
				failed++
				logger.Error("Failed to ingest law file", zap.String("file", path), zap.Error(err))
				if ctx.Err() != nil {
					return ctx.Err()
				}
				continue
			}
			totalChunks += n
			logger.Info("Ingested law file", zap.String("file", path), zap.Int("chunks", n))
		}

		logger.Info("Law ingestion finished",
			zap.Int("files", len(files)),
			zap.Int("failed", failed),
			zap.Int("chunks", totalChunks),
		)
		if failed > 0 {
			return fmt.Errorf("%d of %d files failed", failed, len(files))
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective settings with secrets masked",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.Load(configPath())
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(settings.Redacted())
		if err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (default: CONFIG_FILE or none)")
	runCmd.Flags().StringVar(&dataDir, "dir", "app/data", "directory holding law files; its laws/ subdirectory is read too")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(configCmd)
}

// errMemoryIndex stops a run whose chunks would vanish when the process exits.
var errMemoryIndex = errors.New("vector_index memory does not outlive this command; set VECTOR_INDEX to milvus or pgvector")

// configPath is --config, falling back to CONFIG_FILE.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return os.Getenv("CONFIG_FILE")
}

func loadSettings() (*config.Settings, error) {
	settings, err := config.Load(configPath())
	if err != nil {
		return nil, err
	}
	logger.InitLogger(settings.Stage, settings.LogLevel)
	return settings, nil
}

var lawExtensions = map[string]bool{".txt": true, ".pdf": true}

// collectLawFiles lists *.txt and *.pdf directly inside dir and dir/laws,
// sorted. A missing laws/ subdirectory is not an error.
func collectLawFiles(dir string) ([]string, error) {
	var files []string
	for _, d := range []string{dir, filepath.Join(dir, "laws")} {
		entries, err := os.ReadDir(d)
		if err != nil {
			if os.IsNotExist(err) && d != dir {
				continue
			}
			return nil, fmt.Errorf("failed to read %s: %w", d, err)
		}
		for _, e := range entries {
			if e.IsDir() || !lawExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
				continue
			}
			files = append(files, filepath.Join(d, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// sourceName is the file name without extension; chunk IDs are
// "<sourceName>-<i>".
func sourceName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func ingestFile(ctx context.Context, a *app.App, path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	text, err := extractor.ExtractText(content, path)
	if err != nil {
		return 0, err
	}
	return a.Documents.IndexText(ctx, sourceName(path), text)
}
