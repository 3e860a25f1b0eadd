package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/cyclopcam/logs"
	"github.com/spf13/cobra"

	imageinsight "github.com/menta2k/image-insight"
	"github.com/menta2k/image-insight/internal/config"
	"github.com/menta2k/image-insight/pkg/client"
	"github.com/menta2k/image-insight/pkg/llamacpp"
	"github.com/menta2k/image-insight/pkg/ollama"
)

var (
	configPath string
	backend    string
	serverURL  string
	modelName  string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "image-insight",
	Short: "Describe images with captions, narratives and smart tags",
	Long: `image-insight runs local pixel analysis and an optional vision model over
images, fuses the signals and prints a caption, a narrative and smart tags.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default "+config.GetConfigPath()+")")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "vision backend: none, ollama or llamacpp")
	rootCmd.PersistentFlags().StringVar(&serverURL, "url", "", "vision backend server URL")
	rootCmd.PersistentFlags().StringVar(&modelName, "model", "", "vision model name")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug messages")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file, if any, and applies flag overrides
func loadConfig() (*config.Config, error) {
	path := configPath
	explicit := path != ""
	if !explicit {
		path = config.GetConfigPath()
	}

	cfg := config.Default()
	if explicit || fileExists(path) {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if backend != "" {
		cfg.Backend.Kind = strings.ToLower(backend)
	}
	if serverURL != "" {
		cfg.Backend.URL = serverURL
	}
	if modelName != "" {
		cfg.Backend.Model.Model = modelName
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// newVisionClient creates the client for the configured backend, or nil for none
func newVisionClient(cfg *config.Config) (client.VisionClient, error) {
	switch cfg.Backend.Kind {
	case config.BackendNone:
		return nil, nil
	case config.BackendOllama:
		url := cfg.Backend.URL
		if url == "" {
			url = "http://localhost:11434"
		}
		c, err := ollama.NewClient(url)
		if err != nil {
			return nil, fmt.Errorf("failed to create Ollama client: %w", err)
		}
		return c, nil
	case config.BackendLlamaCpp:
		c, err := llamacpp.NewClient(cfg.Backend.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to create llama.cpp client: %w", err)
		}
		return c, nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend.Kind)
}

// newInsight builds the engine from configuration
func newInsight(cfg *config.Config, log logs.Log) (*imageinsight.Insight, error) {
	vc, err := newVisionClient(cfg)
	if err != nil {
		return nil, err
	}
	return imageinsight.NewWithConfig(imageinsight.Config{
		Pipeline: cfg.Pipeline(),
		Analyzer: cfg.Analyzer,
		Vision:   cfg.Vision,
		Crop:     cfg.Tags.Crop,
		Client:   vc,
		Model:    cfg.Backend.Model,
		Log:      log,
	}), nil
}

// newLog creates the process logger. Debug messages are dropped unless verbose.
func newLog() (logs.Log, error) {
	log, err := logs.NewLog()
	if err != nil {
		return nil, err
	}
	if verbose {
		return log, nil
	}
	return quietLog{log}, nil
}

type quietLog struct {
	logs.Log
}

func (quietLog) Debugf(string, ...interface{}) {}

var errNoInput = errors.New("no input images")
