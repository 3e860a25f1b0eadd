package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/menta2k/image-insight/pkg/analyzer"
	"github.com/menta2k/image-insight/pkg/caption"
	"github.com/menta2k/image-insight/pkg/detectors"
	"github.com/menta2k/image-insight/pkg/fusion"
	"github.com/menta2k/image-insight/pkg/narrative"
	"github.com/menta2k/image-insight/pkg/orchestrator"
	"github.com/menta2k/image-insight/pkg/subject"
	"github.com/menta2k/image-insight/pkg/tags"
	"github.com/menta2k/image-insight/pkg/vision"
)

// Backend kinds
const (
	BackendNone     = "none"
	BackendOllama   = "ollama"
	BackendLlamaCpp = "llamacpp"
)

// Config holds the application configuration
type Config struct {
	Orchestrator OrchestratorConfig `toml:"orchestrator"`
	Backend      BackendConfig      `toml:"backend"`
	Analyzer     analyzer.Config    `toml:"analyzer"`
	Vision       vision.Config      `toml:"vision"`
	Fusion       fusion.Config      `toml:"fusion"`
	Subject      subject.Config     `toml:"subject"`
	Caption      caption.Config     `toml:"caption"`
	Narrative    narrative.Config   `toml:"narrative"`
	Tags         tags.Config        `toml:"tags"`
}

// OrchestratorConfig holds pipeline scheduling and cache settings
type OrchestratorConfig struct {
	PipelineVersion string `toml:"pipeline_version"`
	// Deadline is a Go duration string such as "4s"
	Deadline      string `toml:"deadline"`
	Workers       int    `toml:"workers"`
	CacheCapacity int    `toml:"cache_capacity"`
}

// BackendConfig selects the vision model backend
type BackendConfig struct {
	Kind  string                `toml:"kind"`
	URL   string                `toml:"url"`
	Model detectors.ModelConfig `toml:"model"`
}

// Default returns a configuration with default values
func Default() *Config {
	o := orchestrator.DefaultConfig()
	return &Config{
		Orchestrator: OrchestratorConfig{
			PipelineVersion: o.PipelineVersion,
			Deadline:        o.Deadline.String(),
			Workers:         o.Workers,
			CacheCapacity:   o.CacheCapacity,
		},
		Backend: BackendConfig{
			Kind:  BackendNone,
			Model: detectors.DefaultModelConfig(),
		},
		Analyzer:  analyzer.DefaultConfig(),
		Vision:    vision.DefaultConfig(),
		Fusion:    o.Fusion,
		Subject:   o.Subject,
		Caption:   o.Caption,
		Narrative: o.Narrative,
		Tags:      o.Tags,
	}
}

// LoadFromFile loads configuration from a TOML file. Keys missing from the
// file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a TOML file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Orchestrator.PipelineVersion == "" {
		return fmt.Errorf("orchestrator.pipeline_version cannot be empty")
	}
	if d, err := time.ParseDuration(c.Orchestrator.Deadline); err != nil || d <= 0 {
		return fmt.Errorf("orchestrator.deadline must be a positive duration, got %q", c.Orchestrator.Deadline)
	}
	if c.Orchestrator.Workers < 1 {
		return fmt.Errorf("orchestrator.workers must be positive")
	}
	if c.Orchestrator.CacheCapacity < 1 {
		return fmt.Errorf("orchestrator.cache_capacity must be positive")
	}

	switch c.Backend.Kind {
	case BackendNone, BackendOllama, BackendLlamaCpp:
	default:
		return fmt.Errorf("backend.kind must be one of none, ollama, llamacpp, got %q", c.Backend.Kind)
	}
	if c.Backend.Kind != BackendNone && c.Backend.Model.Model == "" {
		return fmt.Errorf("backend.model.model cannot be empty")
	}
	if c.Backend.Model.JPEGQuality < 1 || c.Backend.Model.JPEGQuality > 100 {
		return fmt.Errorf("backend.model.jpeg_quality must be between 1 and 100")
	}

	if c.Analyzer.MinImageSize < 1 {
		return fmt.Errorf("analyzer.min_image_size must be positive")
	}
	if len(c.Analyzer.SupportedFormats) == 0 {
		return fmt.Errorf("analyzer.supported_formats cannot be empty")
	}

	if c.Vision.EdgeThreshold < 0 || c.Vision.EdgeThreshold > 1 {
		return fmt.Errorf("vision.edge_threshold must be between 0 and 1")
	}
	if c.Vision.MinSubjectRatio < 0 || c.Vision.MinSubjectRatio > 1 {
		return fmt.Errorf("vision.min_subject_ratio must be between 0 and 1")
	}

	if c.Fusion.BackgroundOverride < 0 || c.Fusion.BackgroundOverride > 1 {
		return fmt.Errorf("fusion.background_override must be between 0 and 1")
	}
	if c.Fusion.PersonBoost < 1 || c.Fusion.VehicleBoost < 1 {
		return fmt.Errorf("fusion boosts must be at least 1")
	}

	if c.Subject.MaxSubjects < 1 || c.Subject.MaxSubjects > 3 {
		return fmt.Errorf("subject.max_subjects must be between 1 and 3")
	}

	if c.Caption.MaxLength < 20 {
		return fmt.Errorf("caption.max_length must be at least 20")
	}

	if c.Tags.MaxTags < 1 {
		return fmt.Errorf("tags.max_tags must be positive")
	}
	if c.Tags.Crop.PaddingRatio < 0 || c.Tags.Crop.PaddingRatio > 1 {
		return fmt.Errorf("tags.crop.padding_ratio must be between 0 and 1")
	}
	if c.Tags.Crop.QualityThreshold < 0 || c.Tags.Crop.QualityThreshold > 1 {
		return fmt.Errorf("tags.crop.quality_threshold must be between 0 and 1")
	}

	return nil
}

// Pipeline returns the orchestrator configuration. Call Validate first.
func (c *Config) Pipeline() orchestrator.Config {
	deadline, err := time.ParseDuration(c.Orchestrator.Deadline)
	if err != nil {
		deadline = 0
	}
	return orchestrator.Config{
		PipelineVersion: c.Orchestrator.PipelineVersion,
		Deadline:        deadline,
		Workers:         c.Orchestrator.Workers,
		CacheCapacity:   c.Orchestrator.CacheCapacity,
		Fusion:          c.Fusion,
		Subject:         c.Subject,
		Caption:         c.Caption,
		Narrative:       c.Narrative,
		Tags:            c.Tags,
	}
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.toml"
	}
	return filepath.Join(home, ".config", "image-insight", "config.toml")
}
