package digest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

const Intro = "The following tasks are in your Asana list today.<br><br>"

// WorkspaceTasks holds the pending tasks of one workspace.
type WorkspaceTasks struct {
	Workspace WorkspaceID
	Tasks     []Task
}

type Generator struct {
	Source   TaskSource
	Renderer *Renderer
	Logger   *slog.Logger
}

func NewGenerator(source TaskSource, renderer *Renderer, logger *slog.Logger) *Generator {
	if renderer == nil {
		renderer = NewRenderer()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{Source: source, Renderer: renderer, Logger: logger}
}

// Pending fetches the tasks of a workspace and keeps the ones awaiting the user.
func (g *Generator) Pending(ctx context.Context, workspace WorkspaceID) ([]Task, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	tasks, err := g.Source.FetchTasks(ctx, workspace)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tasks for workspace %s from %s: %w", workspace, g.Source.Name(), err)
	}

	pending := Pending(tasks)
	g.Logger.Info("workspace fetched",
		"workspace", string(workspace),
		"source", g.Source.Name(),
		"fetched", len(tasks),
		"pending", len(pending),
	)
	return pending, nil
}

// Section renders the digest section of one workspace.
func (g *Generator) Section(ctx context.Context, workspace WorkspaceID) (string, error) {
	pending, err := g.Pending(ctx, workspace)
	if err != nil {
		return "", err
	}
	return g.Renderer.RenderSection(pending), nil
}

// Digest renders the full HTML digest for the workspaces in order. The first
// failing workspace aborts the digest.
func (g *Generator) Digest(ctx context.Context, workspaces []WorkspaceID) (string, error) {
	var b strings.Builder
	b.WriteString(Intro)

	for _, ws := range workspaces {
		section, err := g.Section(ctx, ws)
		if err != nil {
			return "", err
		}
		b.WriteString(section)
	}

	return b.String(), nil
}

// Collect fetches the pending tasks of every workspace, in order.
func (g *Generator) Collect(ctx context.Context, workspaces []WorkspaceID) ([]WorkspaceTasks, error) {
	all := make([]WorkspaceTasks, 0, len(workspaces))
	for _, ws := range workspaces {
		pending, err := g.Pending(ctx, ws)
		if err != nil {
			return nil, err
		}
		all = append(all, WorkspaceTasks{Workspace: ws, Tasks: pending})
	}
	return all, nil
}

// Statistics summarises collected tasks for the export commands.
func Statistics(groups []WorkspaceTasks) map[string]any {
	stats := make(map[string]any)

	byWorkspace := make(map[string]int)
	byStatus := make(map[string]int)

	total, due := 0, 0
	for _, g := range groups {
		for _, t := range g.Tasks {
			total++
			byWorkspace[string(g.Workspace)]++
			byStatus[string(t.AssigneeStatus)]++
			if t.DueOn != nil {
				due++
			}
		}
	}

	stats["total"] = total
	stats["with_due_date"] = due
	stats["by_workspace"] = byWorkspace
	stats["by_status"] = byStatus
	return stats
}
