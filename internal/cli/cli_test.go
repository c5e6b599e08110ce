package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contenthub/internal/config"
	"contenthub/internal/content"
	"contenthub/internal/docstore"
)

type cliTestEnv struct {
	ctx     *commandContext
	backend *backend
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	cfg := &config.Config{
		LogLevel:                "error",
		LogFormat:               "text",
		DefaultLanguage:         "fr",
		GeneratorProvider:       "anthropic",
		NotionBaseURL:           "http://127.0.0.1:0",
		NotionRequestsPerSecond: 3,
	}
	b := memoryBackend()
	ctx := newCommandContext()
	ctx.loadConfig = func() (*config.Config, error) { return cfg, nil }
	ctx.openBackend = func(context.Context, *config.Config) (*backend, error) { return b, nil }
	return &cliTestEnv{ctx: ctx, backend: b}
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCommand(e.ctx)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writePayload(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "payload.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestKeysCreate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := env.run(t, "keys", "create", "--name", "laptop", "--source", "cli")
	require.NoError(t, err)
	assert.Contains(t, out, "Key: chub_")
	assert.Contains(t, out, "cannot be shown again")

	n, err := env.backend.store.Count(context.Background(), content.CollectionAPIKeys, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestKeysCreate_RequiresName(t *testing.T) {
	env := setupCLITestEnv(t)

	_, err := env.run(t, "keys", "create")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name")
}

func TestSeed_Idempotent(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := env.run(t, "seed")
	require.NoError(t, err)
	assert.NotContains(t, out, "Seeded 0 ")

	out, err = env.run(t, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 0 taxonomy entries")
}

func TestIngestAndListLogs(t *testing.T) {
	env := setupCLITestEnv(t)
	_, err := env.run(t, "seed")
	require.NoError(t, err)

	path := writePayload(t, `{"title":"Compose tips","body":"Use **profiles**.","type":"tutorial","summary":"Profiles","externalId":"cli-1"}`)
	out, err := env.run(t, "ingest", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"success": true`)
	assert.Contains(t, out, `"action": "created"`)

	// same external id again is an update, not a failure
	out, err = env.run(t, "ingest", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"action": "updated"`)

	out, err = env.run(t, "logs", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "╭")
	assert.Contains(t, out, "Compose tips")
	assert.Contains(t, out, "Page 1, 2 total")

	out, err = env.run(t, "logs", "list", "--status", "failed")
	require.NoError(t, err)
	assert.Contains(t, out, "No ingestion logs")
}

func TestIngest_Failures(t *testing.T) {
	env := setupCLITestEnv(t)

	tests := []struct {
		name    string
		body    string
		args    []string
		wantErr string
	}{
		{
			name:    "invalid json",
			body:    `{"title":`,
			wantErr: "not valid JSON",
		},
		{
			name:    "unknown source",
			body:    `{}`,
			args:    []string{"--source", "fax"},
			wantErr: `unknown source "fax"`,
		},
		{
			name:    "pipeline validation",
			body:    `{"title":"No summary","body":"b","type":"article"}`,
			wantErr: "ingestion failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"ingest", writePayload(t, tt.body)}, tt.args...)
			_, err := env.run(t, args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	res, err := env.backend.store.Find(context.Background(), content.CollectionIngestionLogs, docstore.Query{Where: docstore.Eq("status", "failed")})
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalDocs)
}

func TestLogsList_RejectsUnknownStatus(t *testing.T) {
	env := setupCLITestEnv(t)

	_, err := env.run(t, "logs", "list", "--status", "pending")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown status")
}

func TestConfigErrorStopsCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	boom := errors.New("missing required configuration: DB_HOST")
	env.ctx.loadConfig = func() (*config.Config, error) { return nil, boom }

	_, err := env.run(t, "seed")
	assert.ErrorIs(t, err, boom)
}

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"ID", "Count"}, [][]string{{"a", "1"}, {"b"}}, 1)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 6)
	assert.True(t, strings.HasPrefix(lines[0], "╭"))
	assert.Contains(t, lines[1], "ID")
	assert.Empty(t, renderTable(nil, nil))
}
