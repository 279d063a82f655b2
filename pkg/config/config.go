// Package config loads render settings from an optional .env file and
// PATHTRACER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every variable name
const EnvPrefix = "PATHTRACER_"

// S3Config describes where rendered images are published. An empty Bucket disables publishing.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Prefix    string
}

// Enabled reports whether a bucket is configured
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

// Config holds every setting the CLI and web server read from the environment.
// Zero numeric values mean "use the scene default".
type Config struct {
	Scene    string
	Width    int
	Samples  int
	MaxDepth int
	Seed     int64
	Workers  int
	Output   string
	Port     int
	S3       S3Config
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Scene:  "random",
		Seed:   42,
		Output: "output/render.png",
		Port:   8080,
		S3: S3Config{
			Region: "us-east-1",
			Prefix: "renders/",
		},
	}
}

// Load reads envFile into the process environment, if it exists, and returns the
// defaults overridden by any PATHTRACER_* variables. Variables already set in the
// environment take precedence over the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from a lookup function such as os.LookupEnv
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	p := &parser{lookup: lookup}

	p.str("SCENE", &cfg.Scene)
	p.integer("WIDTH", &cfg.Width)
	p.integer("SAMPLES", &cfg.Samples)
	p.integer("MAX_DEPTH", &cfg.MaxDepth)
	p.int64("SEED", &cfg.Seed)
	p.integer("WORKERS", &cfg.Workers)
	p.str("OUTPUT", &cfg.Output)
	p.integer("PORT", &cfg.Port)

	p.str("S3_BUCKET", &cfg.S3.Bucket)
	p.str("S3_REGION", &cfg.S3.Region)
	p.str("S3_ENDPOINT", &cfg.S3.Endpoint)
	p.str("S3_ACCESS_KEY", &cfg.S3.AccessKey)
	p.str("S3_SECRET_KEY", &cfg.S3.SecretKey)
	p.str("S3_PREFIX", &cfg.S3.Prefix)

	if p.err != nil {
		return Config{}, p.err
	}
	return cfg, nil
}

// parser records the first conversion error and skips the remaining fields
type parser struct {
	lookup func(string) (string, bool)
	err    error
}

func (p *parser) get(name string) (string, bool) {
	if p.err != nil {
		return "", false
	}
	value, ok := p.lookup(EnvPrefix + name)
	return value, ok && value != ""
}

func (p *parser) str(name string, dst *string) {
	if value, ok := p.get(name); ok {
		*dst = value
	}
}

func (p *parser) integer(name string, dst *int) {
	if value, ok := p.get(name); ok {
		n, err := strconv.Atoi(value)
		if err != nil {
			p.err = fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			return
		}
		*dst = n
	}
}

func (p *parser) int64(name string, dst *int64) {
	if value, ok := p.get(name); ok {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			p.err = fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			return
		}
		*dst = n
	}
}
