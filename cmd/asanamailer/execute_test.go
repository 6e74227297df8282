package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Afrawles/asanamailer/internal/asana"
	"github.com/Afrawles/asanamailer/internal/digest"
)

const cliTasksBody = `{"data":[
  {"gid":"11","name":"Write report","assignee_status":"upcoming","workspace":{"gid":"1"},
   "projects":[{"gid":"22","name":"Docs","team":{"name":"Eng"}}]},
  {"gid":"12","name":"Someday","assignee_status":"later","workspace":{"gid":"1"},"projects":[]}
]}`

func newAsanaServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tasks", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, baseURL, outbox string) string {
	t.Helper()
	content := fmt.Sprintf(`asana:
  api_key: secret
  base_url: %s
  workspaces: [1]
mail:
  from_email: mailer@example.com
  to_email: me@example.com
  subject: "Asana tasks for {date}"
  outbox: %q
`, baseURL, outbox)
	path := filepath.Join(t.TempDir(), "asana.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// run executes the root command with args and returns stdout. Flag values
// are package state, so every call sets all of them explicitly.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		printOnly = false
	})

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestExecute_PrintWritesDigestToStdout(t *testing.T) {
	srv := newAsanaServer(t, http.StatusOK, cliTasksBody)
	cfgPath := writeConfig(t, srv.URL, "")

	out, err := run(t, "--config", cfgPath, "--quiet", "--print")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, digest.Intro), out)
	assert.Contains(t, out, `<a href="https://app.asana.com/0/22/11"><strong>Write report</strong></a>`)
	assert.Contains(t, out, "Eng &rsaquo; Docs")
	assert.NotContains(t, out, "Someday")
	assert.True(t, strings.HasSuffix(out, "<br><br>"), out)
}

func TestExecute_SendWritesOutbox(t *testing.T) {
	srv := newAsanaServer(t, http.StatusOK, cliTasksBody)
	outbox := t.TempDir()
	cfgPath := writeConfig(t, srv.URL, outbox)

	out, err := run(t, "--config", cfgPath, "--quiet", "--print=false")
	require.NoError(t, err)
	assert.Empty(t, out)

	html, err := filepath.Glob(filepath.Join(outbox, "*.html"))
	require.NoError(t, err)
	require.Len(t, html, 1)

	body, err := os.ReadFile(html[0])
	require.NoError(t, err)
	assert.Contains(t, string(body), "Write report")
}

func TestExecute_FetchFailureReturnsError(t *testing.T) {
	srv := newAsanaServer(t, http.StatusUnauthorized, `{"errors":[{"message":"Not Authorized"}]}`)
	cfgPath := writeConfig(t, srv.URL, "")

	out, err := run(t, "--config", cfgPath, "--quiet", "--print")
	require.Error(t, err)
	assert.ErrorIs(t, err, asana.ErrRequest)
	assert.Contains(t, err.Error(), "Not Authorized")
	assert.Empty(t, out)
}

func TestExecute_MissingConfigReturnsError(t *testing.T) {
	_, err := run(t, "--config", filepath.Join(t.TempDir(), "missing.yml"), "--quiet", "--print")
	assert.Error(t, err)
}
