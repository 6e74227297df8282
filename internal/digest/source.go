package digest

import (
	"context"
	"time"
)

type WorkspaceID string

type AssigneeStatus string

const (
	StatusInbox    AssigneeStatus = "inbox"
	StatusUpcoming AssigneeStatus = "upcoming"
	StatusToday    AssigneeStatus = "today"
	StatusLater    AssigneeStatus = "later"
	StatusNew      AssigneeStatus = "new"
)

// Task is a work item as returned by the task source. Parent, DueOn and
// Project.Team are nil when the source did not report them.
type Task struct {
	ID             string
	Name           string
	DueOn          *time.Time
	AssigneeStatus AssigneeStatus
	Workspace      WorkspaceID
	Parent         *Task
	Projects       []Project
}

type Project struct {
	ID   string
	Name string
	Team *Team
}

type Team struct {
	Name string
}

// subject returns the task whose lineage describes t: its parent when it
// has one, otherwise t itself.
func (t Task) subject() Task {
	if t.Parent != nil {
		return *t.Parent
	}
	return t
}

func (t Task) firstProject() (Project, bool) {
	if len(t.Projects) == 0 {
		return Project{}, false
	}
	return t.Projects[0], true
}

// TaskSource lists the tasks assigned to the current user in a workspace.
type TaskSource interface {
	Name() string
	FetchTasks(ctx context.Context, workspace WorkspaceID) ([]Task, error)
}
