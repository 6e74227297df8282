package asanamailer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Afrawles/asanamailer/internal/asana"
	"github.com/Afrawles/asanamailer/internal/config"
	"github.com/Afrawles/asanamailer/internal/digest"
	"github.com/Afrawles/asanamailer/internal/logger"
	"github.com/Afrawles/asanamailer/internal/mail"
)

var ErrNoAsanaClient = errors.New("asanamailer: no Asana client configured")

type Application struct {
	Config    config.Config
	Logger    *slog.Logger
	Generator *digest.Generator
	Location  *time.Location

	client *asana.Client
	sender mail.Sender
	now    func() time.Time
}

type Option func(*Application)

func WithLogger(l *slog.Logger) Option {
	return func(app *Application) {
		if l != nil {
			app.Logger = l
		}
	}
}

// WithSource replaces the Asana task source.
func WithSource(src digest.TaskSource) Option {
	return func(app *Application) {
		app.Generator.Source = src
		app.client = nil
	}
}

// WithSender replaces the sender chosen from the mail config.
func WithSender(s mail.Sender) Option {
	return func(app *Application) { app.sender = s }
}

func WithClock(now func() time.Time) Option {
	return func(app *Application) {
		if now != nil {
			app.now = now
		}
	}
}

// New wires the job from a validated config.
func New(cfg config.Config, opts ...Option) (*Application, error) {
	loc, err := cfg.Digest.Location()
	if err != nil {
		return nil, err
	}

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}

	client := asana.NewClient(cfg.Asana.APIKey, cfg.Asana.BaseURL, nil)
	renderer := digest.NewRenderer(
		digest.WithLocation(loc),
		digest.WithEscaping(cfg.Digest.EscapeHTML),
	)

	app := &Application{
		Config: cfg,
		Logger: logger.New(
			logger.WithLevel(level),
			logger.WithFormat(logger.Format(cfg.Log.Format)),
			logger.WithAttr(slog.String("service", "asanamailer")),
		),
		Generator: digest.NewGenerator(asana.NewAsanaSource(client, loc), renderer, nil),
		Location:  loc,
		client:    client,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(app)
	}
	app.Generator.Logger = app.Logger

	return app, nil
}

func (app *Application) workspaces() []digest.WorkspaceID {
	ids := make([]digest.WorkspaceID, 0, len(app.Config.Asana.Workspaces))
	for _, ws := range app.Config.Asana.Workspaces {
		ids = append(ids, digest.WorkspaceID(ws))
	}
	return ids
}

// Today is the current date in the digest zone, as shown in the subject.
func (app *Application) Today() string {
	return digest.FormatDate(app.now(), app.Location)
}

func (app *Application) Digest(ctx context.Context) (string, error) {
	body, err := app.Generator.Digest(ctx, app.workspaces())
	if err != nil {
		app.Logger.Error("failed to build digest", "error", err)
		return "", err
	}
	app.Logger.Info("digest rendered", "workspaces", len(app.Config.Asana.Workspaces), "bytes", len(body))
	return body, nil
}

// Print writes the digest to w without sending anything.
func (app *Application) Print(ctx context.Context, w io.Writer) error {
	body, err := app.Digest(ctx)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, body); err != nil {
		return fmt.Errorf("failed to write digest: %w", err)
	}
	return nil
}

// Send builds the digest and mails it to the configured recipient. A nil
// error means the provider accepted the message.
func (app *Application) Send(ctx context.Context) error {
	if err := app.Config.ValidateMail(); err != nil {
		return err
	}

	sender, err := app.mailSender()
	if err != nil {
		return err
	}

	body, err := app.Digest(ctx)
	if err != nil {
		return err
	}

	mc := app.Config.Mail
	msg := mail.Message{
		From:     mail.Address{Name: mc.FromName, Email: mc.FromEmail},
		ReplyTo:  mc.ReplyTo,
		To:       mail.Address{Name: mc.ToName, Email: mc.ToEmail},
		Subject:  mc.SubjectFor(app.Today()),
		HTMLBody: body,
		Tag:      mc.Tag,
	}

	statuses, err := sender.Send(ctx, msg)
	if err := mail.Accepted(statuses, err); err != nil {
		app.Logger.Error("digest not delivered", "to", mc.ToEmail, "error", err)
		return err
	}

	app.Logger.Info("digest sent",
		"to", statuses[0].To,
		"message_id", statuses[0].MessageID,
		"subject", msg.Subject,
	)
	return nil
}

func (app *Application) mailSender() (mail.Sender, error) {
	if app.sender != nil {
		return app.sender, nil
	}
	if dir := app.Config.Mail.Outbox; dir != "" {
		app.Logger.Info("writing digest to outbox", "dir", dir)
		return mail.NewOutboxSender(dir), nil
	}
	return mail.NewPostmarkSender(app.Config.Mail.PostmarkServerToken, app.Config.Mail.PostmarkAccountToken)
}

// Export writes the pending tasks of every workspace with exporter.
func (app *Application) Export(ctx context.Context, exporter digest.Exporter) (string, map[string]any, error) {
	groups, err := app.Generator.Collect(ctx, app.workspaces())
	if err != nil {
		app.Logger.Error("failed to collect tasks", "error", err)
		return "", nil, err
	}

	path, err := exporter.Export(groups, app.now())
	if err != nil {
		return "", nil, fmt.Errorf("failed to export tasks: %w", err)
	}

	stats := digest.Statistics(groups)
	app.Logger.Info("tasks exported", "file", path, "total", stats["total"])
	return path, stats, nil
}

// Check verifies the Asana credentials and returns the token owner.
func (app *Application) Check(ctx context.Context) (asana.User, error) {
	if app.client == nil {
		return asana.User{}, ErrNoAsanaClient
	}
	user, err := app.client.Me(ctx)
	if err != nil {
		app.Logger.Error("asana credentials check failed", "error", err)
		return asana.User{}, err
	}
	app.Logger.Info("asana credentials ok", "user", user.Name)
	return user, nil
}
