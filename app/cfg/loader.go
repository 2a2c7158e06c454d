package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./postwave.db" description:"Path to the sqlite database file"`

	// Application configuration
	ProfilesDir       string `long:"profiles-dir" env:"PROFILES_DIR" default:"./profiles" description:"Directory containing client profile files"`
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of background workers for automation processing"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"60" description:"Scheduler interval in seconds"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Collaborator configuration
	AnthropicAPIKey     string `long:"anthropic-api-key" env:"ANTHROPIC_API_KEY" description:"API key for the content generation service"`
	GenerationModel     string `long:"generation-model" env:"GENERATION_MODEL" default:"claude-sonnet-4-20250514" description:"Model used for content generation"`
	GenerationMaxTokens int    `long:"generation-max-tokens" env:"GENERATION_MAX_TOKENS" default:"4096" description:"Maximum tokens per content generation request"`
	ImageServiceURL     string `long:"image-service-url" env:"IMAGE_SERVICE_URL" description:"Base URL of the image generation service"`
	ImageServiceKey     string `long:"image-service-key" env:"IMAGE_SERVICE_KEY" description:"API key for the image generation service"`
	PublishServiceURL   string `long:"publish-service-url" env:"PUBLISH_SERVICE_URL" description:"Base URL of the social publishing service"`
	PublishServiceKey   string `long:"publish-service-key" env:"PUBLISH_SERVICE_KEY" description:"API key for the social publishing service"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Postwave/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for schedule evaluation (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:              raw.DBPath,
		ProfilesDir:         raw.ProfilesDir,
		Port:                raw.Port,
		WorkerCount:         raw.WorkerCount,
		SchedulerInterval:   raw.SchedulerInterval,
		APIAccessKey:        raw.APIAccessKey,
		AnthropicAPIKey:     raw.AnthropicAPIKey,
		GenerationModel:     raw.GenerationModel,
		GenerationMaxTokens: raw.GenerationMaxTokens,
		ImageServiceURL:     raw.ImageServiceURL,
		ImageServiceKey:     raw.ImageServiceKey,
		PublishServiceURL:   raw.PublishServiceURL,
		PublishServiceKey:   raw.PublishServiceKey,
		UserAgent:           raw.UserAgent,
		Timezone:            raw.Timezone,
		Debug:               raw.Debug,
		Version:             GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Set replaces the global configuration. Intended for tests.
func Set(c *Cfg) {
	globalCfg = c
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
