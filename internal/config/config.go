package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2/unstable"
	"gopkg.in/yaml.v3"
)

// DatePlaceholder is replaced with the current date in the mail subject.
const DatePlaceholder = "{date}"

type Config struct {
	Asana  AsanaConfig  `yaml:"asana" toml:"asana"`
	Mail   MailConfig   `yaml:"mail" toml:"mail"`
	Digest DigestConfig `yaml:"digest" toml:"digest"`
	Log    LogConfig    `yaml:"log" toml:"log"`
}

type AsanaConfig struct {
	APIKey     string     `yaml:"api_key" toml:"api_key" env:"ASANA_API_KEY" validate:"required"`
	Workspaces Workspaces `yaml:"workspaces" toml:"workspaces" env:"ASANA_WORKSPACES" envSeparator:"," validate:"required,min=1,dive,required"`
	BaseURL    string     `yaml:"base_url" toml:"base_url" env:"ASANA_BASE_URL" validate:"omitempty,url"`
}

type MailConfig struct {
	PostmarkServerToken  string `yaml:"postmark_server_token" toml:"postmark_server_token" env:"POSTMARK_SERVER_TOKEN" validate:"required_without=Outbox"`
	PostmarkAccountToken string `yaml:"postmark_account_token" toml:"postmark_account_token" env:"POSTMARK_ACCOUNT_TOKEN"`
	FromName             string `yaml:"from_name" toml:"from_name" env:"MAIL_FROM_NAME"`
	FromEmail            string `yaml:"from_email" toml:"from_email" env:"MAIL_FROM_EMAIL" validate:"required,email"`
	ReplyTo              string `yaml:"reply_to" toml:"reply_to" env:"MAIL_REPLY_TO" validate:"omitempty,email"`
	ToName               string `yaml:"to_name" toml:"to_name" env:"MAIL_TO_NAME"`
	ToEmail              string `yaml:"to_email" toml:"to_email" env:"MAIL_TO_EMAIL" validate:"required,email"`
	Subject              string `yaml:"subject" toml:"subject" env:"MAIL_SUBJECT" validate:"required"`
	Tag                  string `yaml:"tag" toml:"tag" env:"MAIL_TAG"`
	Outbox               string `yaml:"outbox" toml:"outbox" env:"MAIL_OUTBOX"`
}

type DigestConfig struct {
	EscapeHTML bool   `yaml:"escape_html" toml:"escape_html" env:"DIGEST_ESCAPE_HTML"`
	Timezone   string `yaml:"timezone" toml:"timezone" env:"DIGEST_TIMEZONE" validate:"required"`
}

type LogConfig struct {
	Level  string `yaml:"level" toml:"level" env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" toml:"format" env:"LOG_FORMAT" validate:"oneof=json text"`
}

// Workspaces is the ordered list of workspace ids. Numbers and strings are
// both accepted in YAML and TOML.
type Workspaces []string

func (w *Workspaces) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: workspaces must be a list", value.Line)
	}
	ids := make(Workspaces, 0, len(value.Content))
	for _, item := range value.Content {
		if item.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: workspace id must be a scalar", item.Line)
		}
		ids = append(ids, item.Value)
	}
	*w = ids
	return nil
}

func (w *Workspaces) UnmarshalTOML(value *unstable.Node) error {
	if value.Kind != unstable.Array {
		return fmt.Errorf("workspaces must be an array, got %s", value.Kind)
	}
	ids := Workspaces{}
	it := value.Children()
	for it.Next() {
		item := it.Node()
		switch item.Kind {
		case unstable.String:
			ids = append(ids, string(item.Data))
		case unstable.Integer:
			n, err := strconv.ParseInt(strings.ReplaceAll(string(item.Data), "_", ""), 0, 64)
			if err != nil {
				return fmt.Errorf("workspace id %q: %w", item.Data, err)
			}
			ids = append(ids, strconv.FormatInt(n, 10))
		default:
			return fmt.Errorf("workspace id must be a string or integer, got %s", item.Kind)
		}
	}
	*w = ids
	return nil
}

func Default() Config {
	return Config{
		Mail: MailConfig{
			FromName: "Asana Mailer",
			Subject:  "Your Asana tasks for " + DatePlaceholder,
		},
		Digest: DigestConfig{
			Timezone: "America/New_York",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Location resolves the digest time zone.
func (c DigestConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown timezone %q", ErrInvalidConfig, c.Timezone)
	}
	return loc, nil
}

// SubjectFor fills the date placeholder of the subject template.
func (c MailConfig) SubjectFor(date string) string {
	return strings.ReplaceAll(c.Subject, DatePlaceholder, date)
}

func (c *Config) normalize() {
	ids := make(Workspaces, 0, len(c.Asana.Workspaces))
	for _, id := range c.Asana.Workspaces {
		id = strings.TrimSpace(id)
		if id != "" {
			ids = append(ids, id)
		}
	}
	c.Asana.Workspaces = ids
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
}
