package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Load builds the configuration from defaults, the file at path (YAML, or
// TOML for a .toml extension) and environment variables, in that order of
// precedence from lowest to highest. A .env file in the working directory is
// loaded first when present. An empty path skips the file.
func Load(path string) (Config, error) {
	// The .env file is optional.
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Join(ErrParseEnv, err)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReadConfig, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields().EnableUnmarshalerInterface()
		err = dec.Decode(cfg)
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(cfg)
		// An empty document leaves the defaults in place.
		if errors.Is(err, io.EOF) {
			err = nil
		}
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrReadConfig, path, err)
	}
	return nil
}

// Validate checks everything needed to build a digest. Mail settings are
// checked separately by ValidateMail because the print-only mode does not
// need them.
func (c Config) Validate() error {
	for _, section := range []any{c.Asana, c.Digest, c.Log} {
		if err := validate.Struct(section); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	if _, err := c.Digest.Location(); err != nil {
		return err
	}
	return nil
}

func (c Config) ValidateMail() error {
	if err := validate.Struct(c.Mail); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if !strings.Contains(c.Mail.Subject, DatePlaceholder) {
		return fmt.Errorf("%w: mail subject must contain %s", ErrInvalidConfig, DatePlaceholder)
	}
	return nil
}
