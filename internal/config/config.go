package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const envPrefix = "PIXELBENCH_"

type Config struct {
	BlurInput  string
	BlurOutput string
	DiffInputA string
	DiffInputB string
	DiffOutput string

	Radius   int
	Sigma    float64
	TileSize int
	Workers  int

	LogDir    string
	RedisAddr string
}

// Default returns the paths and parameters the benchmark has always used.
func Default() Config {
	return Config{
		BlurInput:  "../Images/hedgehog.png",
		BlurOutput: "grey_blurred.png",
		DiffInputA: "../Images/render_1.png",
		DiffInputB: "../Images/render_2.png",
		DiffOutput: "RGB_processed.png",
		Radius:     10,
		Sigma:      5.5,
		TileSize:   64,
		Workers:    0,
		LogDir:     "logs",
	}
}

// Load overlays PIXELBENCH_* environment variables on the defaults.
func Load() (Config, error) {
	cfg := Default()

	strVar(&cfg.BlurInput, "BLUR_INPUT")
	strVar(&cfg.BlurOutput, "BLUR_OUTPUT")
	strVar(&cfg.DiffInputA, "DIFF_INPUT_A")
	strVar(&cfg.DiffInputB, "DIFF_INPUT_B")
	strVar(&cfg.DiffOutput, "DIFF_OUTPUT")
	strVar(&cfg.LogDir, "LOG_DIR")
	strVar(&cfg.RedisAddr, "REDIS_ADDR")

	var errs []error
	errs = append(errs, intVar(&cfg.Radius, "RADIUS"))
	errs = append(errs, intVar(&cfg.TileSize, "TILE_SIZE"))
	errs = append(errs, intVar(&cfg.Workers, "WORKERS"))
	errs = append(errs, floatVar(&cfg.Sigma, "SIGMA"))

	return cfg, errors.Join(errs...)
}

func (c Config) Validate() error {
	var errs []error
	if c.Radius < 0 {
		errs = append(errs, fmt.Errorf("radius must not be negative, got %d", c.Radius))
	}
	if !(c.Sigma > 0) {
		errs = append(errs, fmt.Errorf("sigma must be positive, got %v", c.Sigma))
	}
	if c.TileSize < 1 {
		errs = append(errs, fmt.Errorf("tile size must be at least 1, got %d", c.TileSize))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	for name, path := range map[string]string{
		"blur input":        c.BlurInput,
		"blur output":       c.BlurOutput,
		"first diff input":  c.DiffInputA,
		"second diff input": c.DiffInputB,
		"diff output":       c.DiffOutput,
	} {
		if strings.TrimSpace(path) == "" {
			errs = append(errs, fmt.Errorf("%s path must not be empty", name))
		}
	}
	return errors.Join(errs...)
}

// Vars lists the effective settings as environment-style key/value pairs.
func (c Config) Vars() map[string]string {
	return map[string]string{
		envPrefix + "BLUR_INPUT":   c.BlurInput,
		envPrefix + "BLUR_OUTPUT":  c.BlurOutput,
		envPrefix + "DIFF_INPUT_A": c.DiffInputA,
		envPrefix + "DIFF_INPUT_B": c.DiffInputB,
		envPrefix + "DIFF_OUTPUT":  c.DiffOutput,
		envPrefix + "RADIUS":       strconv.Itoa(c.Radius),
		envPrefix + "SIGMA":        strconv.FormatFloat(c.Sigma, 'g', -1, 64),
		envPrefix + "TILE_SIZE":    strconv.Itoa(c.TileSize),
		envPrefix + "WORKERS":      strconv.Itoa(c.Workers),
		envPrefix + "LOG_DIR":      c.LogDir,
		envPrefix + "REDIS_ADDR":   c.RedisAddr,
	}
}

func strVar(dst *string, key string) {
	if v, ok := os.LookupEnv(envPrefix + key); ok {
		*dst = v
	}
}

func intVar(dst *int, key string) error {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("failed to parse %s%s=%q: %w", envPrefix, key, v, err)
	}
	*dst = n
	return nil
}

func floatVar(dst *float64, key string) error {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok || v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("failed to parse %s%s=%q: %w", envPrefix, key, v, err)
	}
	*dst = f
	return nil
}
