package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/strix/cmd/strix/app"
	"github.com/agentstation/strix/internal/cmd/output"
	"github.com/agentstation/strix/pkg/errors"
)

const fixture = `
cores:
  - id: local
    name: Local Files
    search: true
    devices:
      - name: Laptop
        active: true
    library:
      albums:
        - name: Abbey Road
          tracks:
            - name: Come Together
              number: 1
              duration: 4m19s
            - name: Something
              number: 2
              duration: 3m2s
  - id: spotify
    name: Spotify
    devices:
      - name: Living room
        type: remote
    pins:
      albums:
        - name: Revolver
    library:
      albums:
        - name: Abbey Road
          tracks:
            - name: Come Together
              number: 1
              duration: 4m19s
            - name: Something
              number: 2
              duration: 3m2s
        - name: Revolver
`

// run executes args against a fresh app reading the test fixture and
// returns what the command printed.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "cores.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o600))

	var out bytes.Buffer
	logger := zerolog.Nop()
	a, err := app.New("test", app.WithOutput(&out), app.WithLogger(&logger))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })

	args = append([]string{"--fixtures", path, "--log-level", "error", "-o", "json"}, args...)
	err = a.Execute(context.Background(), args)
	return out.String(), err
}

func decode[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

func TestApp_New(t *testing.T) {
	t.Chdir(t.TempDir())
	a, err := app.New("1.0.0")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", a.Version())
	assert.NotNil(t, a.Logger())
	assert.Equal(t, "strix.fixture.yaml", a.Config().Fixtures)
	assert.NoError(t, a.Shutdown(context.Background()), "nothing built yet")

	_, err = app.New("1.0.0", app.WithConfig(nil))
	assert.True(t, errors.IsValidationError(err))
}

func TestExecute_Sources(t *testing.T) {
	out, err := run(t, "sources")
	require.NoError(t, err)
	rows := decode[[]output.Source](t, out)
	require.Len(t, rows, 2)
	assert.Equal(t, output.Source{ID: "local", Name: "Local Files", Rank: 0, Features: []string{"search"}, Devices: 1}, rows[0])
	assert.Equal(t, output.Source{ID: "spotify", Name: "Spotify", Rank: 1, Features: []string{"pins"}, Devices: 1}, rows[1])

	out, err = run(t, "--ranking", "spotify", "sources")
	require.NoError(t, err)
	rows = decode[[]output.Source](t, out)
	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, 0, rows[1].Rank)
}

func TestExecute_LibraryAlbums(t *testing.T) {
	out, err := run(t, "library", "albums", "--page-size", "1")
	require.NoError(t, err)
	entries := decode[[]output.Entry](t, out)
	require.Len(t, entries, 2)
	assert.Equal(t, "Abbey Road", entries[0].Name)
	assert.Equal(t, []string{"local", "spotify"}, entries[0].Sources)
	assert.Equal(t, "Revolver", entries[1].Name)
	assert.Equal(t, []string{"spotify"}, entries[1].Sources)

	out, err = run(t, "--ranking", "spotify,local", "library", "albums")
	require.NoError(t, err)
	entries = decode[[]output.Entry](t, out)
	require.Len(t, entries, 2)
	assert.Equal(t, []string{"spotify", "local"}, entries[0].Sources)
}

func TestExecute_LibraryGroups(t *testing.T) {
	out, err := run(t, "library", "albums", "--group", "pins")
	require.NoError(t, err)
	entries := decode[[]output.Entry](t, out)
	require.Len(t, entries, 1)
	assert.Equal(t, "Revolver", entries[0].Name)

	_, err = run(t, "library", "albums", "--group", "recently_played")
	assert.True(t, errors.IsNotFound(err))

	_, err = run(t, "library", "albums", "--group", "queue")
	assert.True(t, errors.IsValidationError(err))

	_, err = run(t, "library", "albums", "--page-size", "0")
	assert.True(t, errors.IsValidationError(err))
}

func TestExecute_Album(t *testing.T) {
	out, err := run(t, "album", "abbey road")
	require.NoError(t, err)
	album := decode[output.Album](t, out)
	assert.Equal(t, "Abbey Road", album.Name)
	assert.Equal(t, []string{"local", "spotify"}, album.Sources)
	require.Len(t, album.Tracks, 2)
	assert.Equal(t, output.Track{Number: 1, Name: "Come Together", Duration: "4m19s", Sources: []string{"local", "spotify"}}, album.Tracks[0])
	assert.Equal(t, "Something", album.Tracks[1].Name)

	_, err = run(t, "album", "Let It Be")
	assert.True(t, errors.IsNotFound(err))
}

func TestExecute_Devices(t *testing.T) {
	out, err := run(t, "devices")
	require.NoError(t, err)
	devices := decode[[]output.Device](t, out)
	assert.Equal(t, []output.Device{
		{Position: 0, Name: "Laptop", Type: "local", Core: "local", Active: true},
		{Position: 1, Name: "Living room", Type: "remote", Core: "spotify"},
	}, devices)
}

func TestExecute_Search(t *testing.T) {
	out, err := run(t, "search", "abbey")
	require.NoError(t, err)
	result := decode[output.Search](t, out)
	assert.Equal(t, "abbey", result.Query)
	assert.Equal(t, []string{"Abbey Road"}, result.Completions)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "Abbey Road", result.Results[0].Name)
	assert.Equal(t, []string{"local"}, result.Results[0].Sources)

	out, err = run(t, "search", "some", "--complete-only")
	require.NoError(t, err)
	result = decode[output.Search](t, out)
	assert.Equal(t, []string{"Something"}, result.Completions)
	assert.Empty(t, result.Results)
}

func TestExecute_InvalidFormat(t *testing.T) {
	_, err := run(t, "-o", "xml", "sources")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestExecute_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	fixturePath := filepath.Join(dir, "cores.yaml")
	require.NoError(t, os.WriteFile(fixturePath, []byte(fixture), 0o600))
	configPath := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("fixtures: "+fixturePath+"\nmerge:\n  ranking: [spotify]\n"), 0o600))

	var out bytes.Buffer
	a, err := app.New("test", app.WithOutput(&out))
	require.NoError(t, err)
	defer a.Shutdown(context.Background())

	require.NoError(t, a.Execute(context.Background(), []string{"--config", configPath, "--log-level", "error", "-o", "json", "sources"}))
	rows := decode[[]output.Source](t, out.String())
	require.Len(t, rows, 2)
	assert.Equal(t, 0, rows[1].Rank, "spotify ranks first")
	assert.Equal(t, configPath, a.Config().ConfigFile)
}
