package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/rcliao/symptom-catalog/internal/logging"
)

type countingReloader struct {
	calls atomic.Int32
	err   error
}

func (r *countingReloader) Reload() error {
	r.calls.Add(1)
	return r.err
}

func startWatcher(t *testing.T, r Reloader, opts ...Option) (string, chan error) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "symptoms_catalog.csv")
	require.NoError(t, os.WriteFile(path, []byte("code,name,aliases,category\n"), 0o644))

	results := make(chan error, 16)
	opts = append(opts, WithDebounce(20*time.Millisecond), WithNotify(func(err error) { results <- err }))
	w, err := New(path, r, opts...)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(w.Stop)
	return path, results
}

func waitResult(t *testing.T, results chan error) error {
	t.Helper()
	select {
	case err := <-results:
		return err
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reload")
		return nil
	}
}

func TestReloadOnWrite(t *testing.T) {
	r := &countingReloader{}
	path, results := startWatcher(t, r)

	require.NoError(t, os.WriteFile(path, []byte("code,name,aliases,category\nS00001,a,a,b\n"), 0o644))
	assert.NoError(t, waitResult(t, results))
	assert.GreaterOrEqual(t, r.calls.Load(), int32(1))
}

func TestReloadOnReplace(t *testing.T) {
	r := &countingReloader{}
	path, results := startWatcher(t, r)

	tmp := filepath.Join(filepath.Dir(path), ".symptoms_catalog.csv.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte("code,name,aliases,category\n"), 0o644))
	require.NoError(t, os.Rename(tmp, path))

	assert.NoError(t, waitResult(t, results))
}

func TestBurstIsDebounced(t *testing.T) {
	r := &countingReloader{}
	path, results := startWatcher(t, r)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", i+1)), 0o644))
	}
	waitResult(t, results)

	time.Sleep(100 * time.Millisecond)
	assert.Less(t, r.calls.Load(), int32(5))
}

func TestOtherFilesIgnored(t *testing.T) {
	r := &countingReloader{}
	path, _ := startWatcher(t, r)

	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "notes.txt"), []byte("hi"), 0o644))
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(0), r.calls.Load())
}

func TestReloadFailureIsLogged(t *testing.T) {
	tl := logging.NewTestLogger()
	r := &countingReloader{err: errors.New("bad header")}
	path, results := startWatcher(t, r, WithLogger(tl.Logger))

	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))
	assert.Error(t, waitResult(t, results))
	tl.AssertLogged(t, zapcore.WarnLevel, "reload failed")
}

func TestStopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	w, err := New(filepath.Join(dir, "c.csv"), &countingReloader{})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	w.Stop()
	assert.NotPanics(t, w.Stop)
}
