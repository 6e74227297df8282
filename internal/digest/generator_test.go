package digest_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Afrawles/asanamailer/internal/digest"
)

type fakeSource struct {
	tasks   map[digest.WorkspaceID][]digest.Task
	errs    map[digest.WorkspaceID]error
	fetched []digest.WorkspaceID
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) FetchTasks(_ context.Context, ws digest.WorkspaceID) ([]digest.Task, error) {
	f.fetched = append(f.fetched, ws)
	if err := f.errs[ws]; err != nil {
		return nil, err
	}
	return f.tasks[ws], nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGenerator_Digest_EndToEnd(t *testing.T) {
	t.Parallel()

	source := &fakeSource{tasks: map[digest.WorkspaceID][]digest.Task{
		"1": {
			{
				ID:             "100",
				Name:           "Task A",
				AssigneeStatus: digest.StatusInbox,
				Workspace:      "1",
				DueOn:          date(t, "2024-03-05"),
				Projects:       []digest.Project{{ID: "11", Name: "Website"}},
			},
			{
				ID:             "200",
				Name:           "Task B",
				AssigneeStatus: "completed",
				Workspace:      "1",
			},
		},
	}}

	gen := digest.NewGenerator(source, nil, quietLogger())
	out, err := gen.Digest(context.Background(), []digest.WorkspaceID{"1"})
	require.NoError(t, err)

	want := digest.Intro +
		`<p>` + crumbOpen + `Website</small><br>` +
		`<a href="https://app.asana.com/0/11/100"><strong>Task A</strong></a> ` +
		`<small style="color: #999; font-style: italic;">05 Mar 2024</small></p>` +
		`<br><br>`
	assert.Equal(t, want, out)
	assert.Equal(t, 1, strings.Count(out, "<p>"))
	assert.NotContains(t, out, "Task B")
}

func TestGenerator_Digest_WorkspaceOrder(t *testing.T) {
	t.Parallel()

	source := &fakeSource{tasks: map[digest.WorkspaceID][]digest.Task{
		"b": {{ID: "2", Name: "From B", Workspace: "b", AssigneeStatus: digest.StatusUpcoming}},
		"a": {{ID: "1", Name: "From A", Workspace: "a", AssigneeStatus: digest.StatusInbox}},
	}}

	gen := digest.NewGenerator(source, nil, quietLogger())
	out, err := gen.Digest(context.Background(), []digest.WorkspaceID{"b", "a", "empty"})
	require.NoError(t, err)

	assert.Equal(t, []digest.WorkspaceID{"b", "a", "empty"}, source.fetched)
	assert.Less(t, strings.Index(out, "From B"), strings.Index(out, "From A"))
	assert.True(t, strings.HasSuffix(out, "<br><br><br><br>"))
}

func TestGenerator_Digest_FailsFast(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	source := &fakeSource{
		tasks: map[digest.WorkspaceID][]digest.Task{
			"1": {{ID: "1", Name: "ok", AssigneeStatus: digest.StatusInbox}},
		},
		errs: map[digest.WorkspaceID]error{"2": boom},
	}

	gen := digest.NewGenerator(source, nil, quietLogger())
	out, err := gen.Digest(context.Background(), []digest.WorkspaceID{"1", "2", "3"})

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "workspace 2")
	assert.Empty(t, out)
	assert.Equal(t, []digest.WorkspaceID{"1", "2"}, source.fetched)
}

func TestGenerator_Digest_Idempotent(t *testing.T) {
	t.Parallel()

	source := &fakeSource{tasks: map[digest.WorkspaceID][]digest.Task{
		"1": {{ID: "1", Name: "Same", Workspace: "1", AssigneeStatus: digest.StatusInbox, DueOn: date(t, "2024-12-31")}},
	}}
	gen := digest.NewGenerator(source, nil, quietLogger())

	first, err := gen.Digest(context.Background(), []digest.WorkspaceID{"1"})
	require.NoError(t, err)
	second, err := gen.Digest(context.Background(), []digest.WorkspaceID{"1"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGenerator_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := &fakeSource{}
	gen := digest.NewGenerator(source, nil, quietLogger())
	_, err := gen.Digest(ctx, []digest.WorkspaceID{"1"})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, source.fetched)
}

func TestGenerator_CollectAndStatistics(t *testing.T) {
	t.Parallel()

	source := &fakeSource{tasks: map[digest.WorkspaceID][]digest.Task{
		"1": {
			{ID: "1", AssigneeStatus: digest.StatusInbox, DueOn: date(t, "2024-03-05")},
			{ID: "2", AssigneeStatus: digest.StatusLater},
		},
		"2": {
			{ID: "3", AssigneeStatus: digest.StatusUpcoming},
		},
	}}
	gen := digest.NewGenerator(source, nil, quietLogger())

	groups, err := gen.Collect(context.Background(), []digest.WorkspaceID{"1", "2"})
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Len(t, groups[0].Tasks, 1)
	assert.Len(t, groups[1].Tasks, 1)

	stats := digest.Statistics(groups)
	assert.Equal(t, 2, stats["total"])
	assert.Equal(t, 1, stats["with_due_date"])
	assert.Equal(t, map[string]int{"1": 1, "2": 1}, stats["by_workspace"])
	assert.Equal(t, map[string]int{"inbox": 1, "upcoming": 1}, stats["by_status"])
}
