package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

const dataset = `[{"date":"2024-01-01","commits_by_topics":{"go":2},"total_count":2}]`

func datasetFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "commit_history.json")
	if err := os.WriteFile(path, []byte(dataset), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestDebouncer_CoalescesRapidTriggers(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	var calls atomic.Int32
	for i := 0; i < 10; i++ {
		d.Trigger(func() { calls.Add(1) })
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(120 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("expected 1 call, got %d", n)
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	var called atomic.Bool
	d.Trigger(func() { called.Store(true) })
	d.Cancel()
	time.Sleep(100 * time.Millisecond)
	if called.Load() {
		t.Error("callback ran after Cancel")
	}
}

func TestDebouncer_DefaultDuration(t *testing.T) {
	if d := NewDebouncer(0); d.Duration() != DefaultDebounceDuration {
		t.Errorf("duration = %v", d.Duration())
	}
}

func TestWatcher_DetectsChange(t *testing.T) {
	for _, poll := range []bool{false, true} {
		name := "fsnotify"
		if poll {
			name = "polling"
		}
		t.Run(name, func(t *testing.T) {
			path := datasetFile(t)
			var changed atomic.Bool
			w, err := NewWatcher(path,
				WithDebounceDuration(30*time.Millisecond),
				WithPollInterval(40*time.Millisecond),
				WithForcePoll(poll),
				WithOnChange(func() { changed.Store(true) }),
			)
			if err != nil {
				t.Fatal(err)
			}
			if err := w.Start(); err != nil {
				t.Fatal(err)
			}
			defer w.Stop()
			if poll && !w.IsPolling() {
				t.Error("expected polling mode")
			}

			time.Sleep(60 * time.Millisecond)
			if err := os.WriteFile(path, []byte(dataset+"\n "), 0o644); err != nil {
				t.Fatal(err)
			}
			if !waitFor(t, time.Second, changed.Load) {
				t.Error("change not detected")
			}
		})
	}
}

func TestWatcher_ChangedChannel(t *testing.T) {
	path := datasetFile(t)
	w, err := NewWatcher(path,
		WithDebounceDuration(30*time.Millisecond),
		WithPollInterval(40*time.Millisecond),
		WithForcePoll(true),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	go func() {
		time.Sleep(60 * time.Millisecond)
		os.WriteFile(path, []byte("[]"), 0o644)
	}()
	select {
	case <-w.Changed():
	case <-time.After(time.Second):
		t.Error("timeout waiting for change notification")
	}
}

func TestWatcher_EnvForcePoll(t *testing.T) {
	t.Setenv(EnvForcePoll, "yes")
	w, err := NewWatcher(datasetFile(t), WithPollInterval(25*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	if !w.IsPolling() {
		t.Fatalf("expected polling when %s is set", EnvForcePoll)
	}
}

func TestWatcher_RemoteFilesystemPolls(t *testing.T) {
	orig := detectFilesystemTypeFunc
	detectFilesystemTypeFunc = func(string) FilesystemType { return FSTypeNFS }
	t.Cleanup(func() { detectFilesystemTypeFunc = orig })

	w, err := NewWatcher(datasetFile(t), WithPollInterval(25*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if !w.IsPolling() || w.FilesystemType() != FSTypeNFS {
		t.Errorf("polling=%v fs=%v", w.IsPolling(), w.FilesystemType())
	}
}

func TestWatcher_FileRemoved(t *testing.T) {
	path := datasetFile(t)
	errCh := make(chan error, 4)
	w, err := NewWatcher(path,
		WithPollInterval(40*time.Millisecond),
		WithForcePoll(true),
		WithOnError(func(err error) {
			select {
			case errCh <- err:
			default:
			}
		}),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	os.Remove(path)
	select {
	case err := <-errCh:
		if !errors.Is(err, ErrFileRemoved) {
			t.Errorf("err = %v", err)
		}
	case <-time.After(time.Second):
		t.Error("removal not reported")
	}
}

func TestWatcher_StartStop(t *testing.T) {
	w, err := NewWatcher(datasetFile(t))
	if err != nil {
		t.Fatal(err)
	}
	if w.IsStarted() {
		t.Error("started before Start")
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("double start: %v", err)
	}
	w.Stop()
	if w.IsStarted() {
		t.Error("still started after Stop")
	}
	w.Stop()
}

func TestWatcher_Accessors(t *testing.T) {
	path := datasetFile(t)
	w, err := NewWatcher(path, WithPollInterval(500*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	abs, _ := filepath.Abs(path)
	if w.Path() != abs || w.PollInterval() != 500*time.Millisecond {
		t.Errorf("path=%q interval=%v", w.Path(), w.PollInterval())
	}
}

func TestFilesystemType_String(t *testing.T) {
	tests := []struct {
		fs   FilesystemType
		want string
	}{
		{FSTypeUnknown, "unknown"},
		{FSTypeLocal, "local"},
		{FSTypeNFS, "nfs"},
		{FSTypeSMB, "smb"},
		{FSTypeSSHFS, "sshfs"},
		{FSTypeFUSE, "fuse"},
		{FilesystemType(99), "unknown"},
	}
	for _, tc := range tests {
		if got := tc.fs.String(); got != tc.want {
			t.Errorf("FilesystemType(%d) = %q, want %q", tc.fs, got, tc.want)
		}
	}
}

func TestEnvBool(t *testing.T) {
	for value, want := range map[string]bool{
		"1": true, "true": true, "TRUE": true, "yes": true, "Y": true, "on": true,
		"0": false, "false": false, "no": false, "": false, "invalid": false,
	} {
		t.Setenv("SPREAD_TEST_BOOL", value)
		if got := envBool("SPREAD_TEST_BOOL"); got != want {
			t.Errorf("envBool(%q) = %v", value, got)
		}
	}
}

func TestDetectFilesystemType(t *testing.T) {
	if got := DetectFilesystemType(""); got != FSTypeUnknown {
		t.Errorf("empty path = %v", got)
	}
	// missing files resolve through their parent directory
	_ = DetectFilesystemType(filepath.Join(t.TempDir(), "missing.json"))
}

func TestReloader_DeliversRecords(t *testing.T) {
	path := datasetFile(t)
	r, err := NewReloader(path,
		WithDebounceDuration(20*time.Millisecond),
		WithPollInterval(30*time.Millisecond),
		WithForcePoll(true),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Start(); err != nil {
		t.Fatal(err)
	}
	defer r.Stop()

	time.Sleep(50 * time.Millisecond)
	updated := `[
		{"date":"2024-01-01","commits_by_topics":{"go":2},"total_count":2},
		{"date":"2024-01-02","commits_by_topics":{"rust":1},"total_count":1}
	]`
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case u := <-r.Updates():
		if u.Err != nil || len(u.Records) != 2 {
			t.Errorf("update = %+v", u)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no update")
	}
}

func TestReloader_KeepsNewestUpdate(t *testing.T) {
	r, err := NewReloader(datasetFile(t))
	if err != nil {
		t.Fatal(err)
	}
	r.publish(Update{Skipped: 1})
	r.publish(Update{Skipped: 2})
	if u := <-r.Updates(); u.Skipped != 2 {
		t.Errorf("got stale update %+v", u)
	}
}
