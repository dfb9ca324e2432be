package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func eventFor(path string) fsnotify.Event {
	return fsnotify.Event{Name: path, Op: fsnotify.Write}
}

func TestWatcherReloadsOnRuleChange(t *testing.T) {
	root := t.TempDir()
	writeRule(t, root, "global/v1/a.rego", rule("global.v1.a"))

	store, _, err := NewStore(NewLoader(nil, nil), root)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	w, err := NewWatcher(store, &WatcherConfig{
		DebounceInterval: 50 * time.Millisecond,
		Extensions:       []string{".rego"},
	}, nil)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	// Give the watcher a moment to register the tree.
	time.Sleep(100 * time.Millisecond)

	writeRule(t, root, "global/v1/b.rego", rule("global.v1.b"))

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if store.Catalog().Len() == 2 {
			return
		}
		time.Sleep(25 * time.Millisecond)
	}
	t.Fatalf("catalog not reloaded: Len() = %d, want 2", store.Catalog().Len())
}

func TestWatcherIgnoresUnrelatedFiles(t *testing.T) {
	w := &Watcher{extensions: []string{".rego"}}

	if w.shouldProcess(eventFor("/policies/global/v1/a.rego")) == false {
		t.Error("rego file change should be processed")
	}
	if w.shouldProcess(eventFor("/policies/notes.txt")) {
		t.Error("non-rule file change should be ignored")
	}
	if w.shouldProcess(eventFor("/policies/.a.rego.swp")) {
		t.Error("hidden file change should be ignored")
	}
}
