package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

// TestLogger captures JSON log entries written during a test.
type TestLogger struct {
	zerolog.Logger

	mu  sync.Mutex
	buf bytes.Buffer
}

// NewTestLogger returns a trace level logger writing into memory.
func NewTestLogger(t testing.TB) *TestLogger {
	t.Helper()
	tl := &TestLogger{}
	tl.Logger = zerolog.New(lockedWriter{tl}).Level(zerolog.TraceLevel)
	return tl
}

type lockedWriter struct{ tl *TestLogger }

func (w lockedWriter) Write(p []byte) (int, error) {
	w.tl.mu.Lock()
	defer w.tl.mu.Unlock()
	return w.tl.buf.Write(p)
}

// Entries decodes every captured entry. Lines that are not JSON objects
// are skipped.
func (tl *TestLogger) Entries() []map[string]any {
	tl.mu.Lock()
	data := bytes.Clone(tl.buf.Bytes())
	tl.mu.Unlock()

	var out []map[string]any
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		var entry map[string]any
		if json.Unmarshal(scanner.Bytes(), &entry) == nil {
			out = append(out, entry)
		}
	}
	return out
}

// Find returns the captured entries with message msg.
func (tl *TestLogger) Find(msg string) []map[string]any {
	var out []map[string]any
	for _, e := range tl.Entries() {
		if e[zerolog.MessageFieldName] == msg {
			out = append(out, e)
		}
	}
	return out
}
