package dispatcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/aleister1102/apifileprocessor/internal/common/errorwrapper"
	"github.com/aleister1102/apifileprocessor/internal/common/filemanager"
	"github.com/aleister1102/apifileprocessor/internal/config"
	"github.com/aleister1102/apifileprocessor/internal/httpclient"
	"github.com/aleister1102/apifileprocessor/internal/jobclient"
	"github.com/aleister1102/apifileprocessor/internal/jobclient/mockapi"
	"github.com/aleister1102/apifileprocessor/internal/lifecycle"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	server     *mockapi.Server
	dispatcher *Dispatcher
	folder     config.FolderConfig
}

func newFixture(t *testing.T, apiKey string, maxConcurrent int, policy lifecycle.Policy) *fixture {
	t.Helper()
	server := mockapi.New()
	t.Cleanup(server.Close)

	hc, err := httpclient.NewHTTPClientBuilder(zerolog.Nop()).WithTimeout(5 * time.Second).Build()
	require.NoError(t, err)
	api := jobclient.NewClient(hc, jobclient.Options{APIKey: apiKey, Scheme: "http", VersionPath: "V5"}, zerolog.Nop())

	files := filemanager.NewFileManager(zerolog.Nop())
	runner := lifecycle.NewRunner(api, files, policy, zerolog.Nop())

	root := t.TempDir()
	folder := config.FolderConfig{
		FolderPath:   filepath.Join(root, "in"),
		OutputFolder: filepath.Join(root, "out"),
		Endpoint:     config.EndpointConfig{URL: server.CreateURL()},
	}
	require.NoError(t, os.MkdirAll(folder.FolderPath, 0755))

	return &fixture{
		server:     server,
		dispatcher: NewDispatcher(runner, files, maxConcurrent, zerolog.Nop()),
		folder:     folder,
	}
}

func fastPolicy() lifecycle.Policy {
	return lifecycle.Policy{
		MaxPollAttempts: 5,
		MaxPollErrors:   2,
		SubmitRetries:   1,
		OutputNaming:    config.OutputNamingJobID,
	}
}

func (f *fixture) addFiles(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(f.folder.FolderPath, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("content of "+name), 0644))
	}
}

func listNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

func TestProcessFolder_AllDone(t *testing.T) {
	f := newFixture(t, "", 2, fastPolicy())
	f.addFiles(t, "a.txt", "b.txt", "c.txt")

	report := f.dispatcher.ProcessFolder(context.Background(), f.folder)

	require.NoError(t, report.Err)
	assert.Equal(t, 3, report.Succeeded)
	assert.Equal(t, 0, report.Failed)
	assert.Len(t, listNames(t, f.folder.OutputFolder), 3)
	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt"}, listNames(t, f.folder.ProcessedFolder()))
	assert.Empty(t, listNames(t, f.folder.FolderPath))

	for _, res := range report.Files {
		data, err := os.ReadFile(res.OutputPath)
		require.NoError(t, err)
		assert.Equal(t, "result:"+filepath.Base(res.SourcePath), string(data))
	}
}

func TestProcessFolder_OneJobFails(t *testing.T) {
	f := newFixture(t, "", 3, fastPolicy())
	f.server.StatusFor = func(name string, poll int) string {
		if name == "b.txt" {
			return "failed"
		}
		return "completed"
	}
	f.addFiles(t, "a.txt", "b.txt", "c.txt")

	report := f.dispatcher.ProcessFolder(context.Background(), f.folder)

	require.NoError(t, report.Err)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, []string{"b.txt"}, listNames(t, f.folder.FolderPath))
	assert.Equal(t, []string{"a.txt", "c.txt"}, listNames(t, f.folder.ProcessedFolder()))
	assert.Len(t, listNames(t, f.folder.OutputFolder), 2)

	for _, res := range report.Files {
		if filepath.Base(res.SourcePath) == "b.txt" {
			var jobErr *lifecycle.JobFailedError
			assert.ErrorAs(t, res.Err, &jobErr)
		}
	}
}

func TestProcessFolder_Idempotent(t *testing.T) {
	f := newFixture(t, "", 2, fastPolicy())
	f.addFiles(t, "a.txt", "b.txt")

	first := f.dispatcher.ProcessFolder(context.Background(), f.folder)
	require.Equal(t, 2, first.Succeeded)
	outputs := listNames(t, f.folder.OutputFolder)
	processed := listNames(t, f.folder.ProcessedFolder())

	second := f.dispatcher.ProcessFolder(context.Background(), f.folder)
	require.NoError(t, second.Err)
	assert.Empty(t, second.Files)
	assert.Len(t, f.server.Uploaded(), 2)
	assert.Equal(t, outputs, listNames(t, f.folder.OutputFolder))
	assert.Equal(t, processed, listNames(t, f.folder.ProcessedFolder()))
}

func TestProcessFolder_PendingForever(t *testing.T) {
	policy := fastPolicy()
	policy.MaxPollAttempts = 2
	f := newFixture(t, "", 2, policy)
	f.server.StatusFor = func(string, int) string { return "processing" }
	f.addFiles(t, "a.txt", "b.txt")

	report := f.dispatcher.ProcessFolder(context.Background(), f.folder)

	require.NoError(t, report.Err)
	assert.Equal(t, 2, report.Failed)
	for _, res := range report.Files {
		assert.Equal(t, "TimeoutError", errorwrapper.KindOf(res.Err))
	}
	assert.Equal(t, []string{"a.txt", "b.txt"}, listNames(t, f.folder.FolderPath))
	assert.Empty(t, listNames(t, f.folder.OutputFolder))
}

func TestProcessFolder_AuthErrorAbortsFolder(t *testing.T) {
	f := newFixture(t, "wrong-key", 1, fastPolicy())
	f.server.APIKey = "right-key"
	f.addFiles(t, "a.txt", "b.txt", "c.txt")

	report := f.dispatcher.ProcessFolder(context.Background(), f.folder)

	var authErr *jobclient.AuthError
	require.ErrorAs(t, report.Err, &authErr)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt"}, listNames(t, f.folder.FolderPath))
}

func TestProcessFolder_RateLimitAbortsFolder(t *testing.T) {
	f := newFixture(t, "", 1, fastPolicy())
	f.server.RateLimited = true
	f.addFiles(t, "a.txt", "b.txt", "c.txt")

	report := f.dispatcher.ProcessFolder(context.Background(), f.folder)

	var rateErr *jobclient.RateLimitError
	require.ErrorAs(t, report.Err, &rateErr)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 2, report.Skipped)
	// one file, submitted once and retried once
	assert.Equal(t, 2, f.server.CreateCalls())
	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt"}, listNames(t, f.folder.FolderPath))
	assert.Empty(t, listNames(t, f.folder.OutputFolder))

	for _, res := range report.Files {
		if res.Skipped {
			assert.ErrorAs(t, res.Err, &rateErr)
		}
	}
}

func TestProcessFolder_LogsBatchStats(t *testing.T) {
	f := newFixture(t, "wrong-key", 1, fastPolicy())
	f.server.APIKey = "right-key"
	f.addFiles(t, "a.txt", "b.txt", "c.txt")

	var buf bytes.Buffer
	f.dispatcher.logger = zerolog.New(&buf)

	f.dispatcher.ProcessFolder(context.Background(), f.folder)

	var line map[string]any
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(raw), &entry))
		if entry["message"] == "Folder processed" {
			line = entry
		}
	}
	require.NotNil(t, line)
	assert.EqualValues(t, 2, line["not_started"])
	assert.EqualValues(t, 2, line["skipped"])
	assert.Contains(t, line, "batch_duration")
}

func TestProcessFolder_MissingFolder(t *testing.T) {
	f := newFixture(t, "", 1, fastPolicy())
	f.folder.FolderPath = filepath.Join(f.folder.FolderPath, "does-not-exist")

	report := f.dispatcher.ProcessFolder(context.Background(), f.folder)

	var cfgErr *config.ConfigError
	require.ErrorAs(t, report.Err, &cfgErr)
	assert.Empty(t, f.server.Uploaded())
}

func TestProcessFolder_Recursive(t *testing.T) {
	f := newFixture(t, "", 2, fastPolicy())
	f.folder.Recursive = true
	f.folder.OutputFolder = filepath.Join(f.folder.FolderPath, config.DefaultOutputSubfolderName)
	f.addFiles(t, "top.txt", filepath.Join("nested", "deep.txt"))

	report := f.dispatcher.ProcessFolder(context.Background(), f.folder)
	require.NoError(t, report.Err)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, []string{"deep.txt", "top.txt"}, listNames(t, f.folder.ProcessedFolder()))

	// Results written inside the watched folder are not picked up again
	again := f.dispatcher.ProcessFolder(context.Background(), f.folder)
	assert.Empty(t, again.Files)
}

func TestProcessFolder_CancelledRun(t *testing.T) {
	f := newFixture(t, "", 1, fastPolicy())
	f.addFiles(t, "a.txt", "b.txt")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := f.dispatcher.ProcessFolder(ctx, f.folder)

	assert.NoError(t, report.Err)
	assert.Equal(t, 2, report.Skipped)
	for _, res := range report.Files {
		assert.True(t, errors.Is(res.Err, context.Canceled))
	}
	assert.Equal(t, []string{"a.txt", "b.txt"}, listNames(t, f.folder.FolderPath))
}
