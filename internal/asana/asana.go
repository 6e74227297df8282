package asana

import (
	"context"
	"fmt"
	"time"

	"github.com/Afrawles/asanamailer/internal/digest"
)

type AsanaSource struct {
	Client   *Client
	Location *time.Location
}

func NewAsanaSource(client *Client, loc *time.Location) *AsanaSource {
	if loc == nil {
		loc = digest.DefaultLocation()
	}
	return &AsanaSource{Client: client, Location: loc}
}

var _ digest.TaskSource = (*AsanaSource)(nil)

func (s *AsanaSource) Name() string {
	return "Asana"
}

func (s *AsanaSource) FetchTasks(ctx context.Context, workspace digest.WorkspaceID) ([]digest.Task, error) {
	asanaTasks, err := s.Client.FetchTasks(ctx, string(workspace))
	if err != nil {
		return nil, err
	}

	tasks := make([]digest.Task, 0, len(asanaTasks))
	for _, t := range asanaTasks {
		task, err := s.convert(t, workspace)
		if err != nil {
			return nil, fmt.Errorf("%w: task %s: %w", ErrDecode, t.Key(), err)
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (s *AsanaSource) convert(t AsanaTask, workspace digest.WorkspaceID) (digest.Task, error) {
	task := digest.Task{
		ID:             t.Key(),
		Name:           t.Name,
		AssigneeStatus: digest.AssigneeStatus(t.AssigneeStatus),
		Workspace:      workspace,
	}
	if t.Workspace != nil && t.Workspace.Key() != "" {
		task.Workspace = digest.WorkspaceID(t.Workspace.Key())
	}

	if t.DueOn != nil && *t.DueOn != "" {
		due, err := time.ParseInLocation("2006-01-02", *t.DueOn, s.Location)
		if err != nil {
			return digest.Task{}, fmt.Errorf("invalid due_on %q: %w", *t.DueOn, err)
		}
		task.DueOn = &due
	}

	for _, p := range t.Projects {
		project := digest.Project{ID: p.Key(), Name: p.Name}
		if p.Team != nil {
			project.Team = &digest.Team{Name: p.Team.Name}
		}
		task.Projects = append(task.Projects, project)
	}

	if t.Parent != nil {
		parent, err := s.convert(*t.Parent, task.Workspace)
		if err != nil {
			return digest.Task{}, fmt.Errorf("parent: %w", err)
		}
		task.Parent = &parent
	}

	return task, nil
}
