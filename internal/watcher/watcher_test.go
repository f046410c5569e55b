package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

func waitEvent(t *testing.T, w *Watcher) Event {
	t.Helper()
	select {
	case ev := <-w.Events():
		return ev
	case err := <-w.Errors():
		t.Fatalf("watch error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestDetectsContentChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "menu.json")
	writeFile(t, path, `{"items": [{"id": "a", "label": "A"}]}`)

	w, err := New(path, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	writeFile(t, path, `{"items": [{"id": "b", "label": "B"}]}`)

	ev := waitEvent(t, w)
	if ev.Path != path {
		t.Errorf("expected path %s, got %s", path, ev.Path)
	}
	if ev.Size == 0 {
		t.Error("expected non-zero size")
	}
}

func TestDetectsFileCreation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "menu.json")

	w, err := New(path, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	writeFile(t, path, `{"items": [{"id": "a", "label": "A"}]}`)

	ev := waitEvent(t, w)
	if ev.Path != path {
		t.Errorf("expected path %s, got %s", path, ev.Path)
	}
}

func TestIgnoresUnchangedContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "menu.json")
	content := `{"items": [{"id": "a", "label": "A"}]}`
	writeFile(t, path, content)

	w, err := New(path, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	// Same bytes: the content hash matches and no event is emitted.
	writeFile(t, path, content)

	select {
	case ev := <-w.Events():
		t.Errorf("unexpected event for unchanged content: %+v", ev)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "menu.json")
	writeFile(t, path, `{"items": [{"id": "a", "label": "A"}]}`)

	w, err := New(path, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	writeFile(t, filepath.Join(dir, "other.json"), `{}`)

	select {
	case ev := <-w.Events():
		t.Errorf("unexpected event for sibling file: %+v", ev)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestStartFailsForMissingDirectory(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "missing", "menu.json"), 50*time.Millisecond)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Start(); err == nil {
		t.Error("expected Start to fail for a missing directory")
		w.Stop()
	}
}
