package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/Afrawles/asanamailer/internal/digest"
)

// spinnerSource shows a spinner on stderr while each workspace is fetched.
type spinnerSource struct {
	next digest.TaskSource
}

func newSpinnerSource(next digest.TaskSource) digest.TaskSource {
	return &spinnerSource{next: next}
}

func (s *spinnerSource) Name() string {
	return s.next.Name()
}

func (s *spinnerSource) FetchTasks(ctx context.Context, workspace digest.WorkspaceID) ([]digest.Task, error) {
	bar := newSpinner(fmt.Sprintf("Fetching workspace %s", workspace))
	defer finishBar(bar)
	return s.next.FetchTasks(ctx, workspace)
}

func newSpinner(description string) *progressbar.ProgressBar {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(15),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	_ = bar.RenderBlank()
	return bar
}

func finishBar(bar *progressbar.ProgressBar) {
	if bar != nil {
		_ = bar.Finish()
	}
}
