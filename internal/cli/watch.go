package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	papyrus "github.com/PapyGame/PapyrusWebBackend-sub011"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/domain"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/model"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/ports"
)

// reloadDelay lets editors finish writing before the description is parsed.
const reloadDelay = 100 * time.Millisecond

// Reloader is a ports.Editor whose engine is rebuilt when the description changes.
// Calls in flight finish on the engine they started with; a swap waits for them.
type Reloader struct {
	mu      sync.RWMutex
	current *papyrus.Engine
	build   func() (*papyrus.Engine, error)
}

var _ ports.Editor = (*Reloader)(nil)

// NewReloader builds the first engine. build is called again on every Reload.
func NewReloader(build func() (*papyrus.Engine, error)) (*Reloader, error) {
	engine, err := build()
	if err != nil {
		return nil, err
	}
	return &Reloader{current: engine, build: build}, nil
}

// FromOptions returns a builder resolving the kind of opts again on each call,
// over a store opened once by the caller.
func FromOptions(opts Options, st *Store, logger *slog.Logger) func() (*papyrus.Engine, error) {
	return func() (*papyrus.Engine, error) {
		kind, err := ResolveKind(opts.Kind, opts.DescriptionPath)
		if err != nil {
			return nil, err
		}
		return NewEngine(kind, st, opts, logger)
	}
}

// Engine returns the engine serving calls right now.
func (r *Reloader) Engine() *papyrus.Engine {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Reload rebuilds the engine. On error the previous engine keeps serving.
func (r *Reloader) Reload() error {
	next, err := r.build()
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.current = next
	r.mu.Unlock()
	return nil
}

func (r *Reloader) Open(ctx context.Context, sessionID string, m *model.Model) (*domain.Diagram, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current.Open(ctx, sessionID, m)
}

func (r *Reloader) Diagram(ctx context.Context, sessionID string) (*domain.Diagram, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current.Diagram(ctx, sessionID)
}

func (r *Reloader) Close(ctx context.Context, sessionID string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current.Close(ctx, sessionID)
}

func (r *Reloader) CreateNode(ctx context.Context, sessionID string, req domain.CreateNodeRequest) domain.Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current.CreateNode(ctx, sessionID, req)
}

func (r *Reloader) CreateEdge(ctx context.Context, sessionID string, req domain.CreateEdgeRequest) domain.Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current.CreateEdge(ctx, sessionID, req)
}

func (r *Reloader) Delete(ctx context.Context, sessionID string, req domain.DeleteRequest) domain.Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current.Delete(ctx, sessionID, req)
}

func (r *Reloader) Reconnect(ctx context.Context, sessionID string, req domain.ReconnectRequest) domain.Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current.Reconnect(ctx, sessionID, req)
}

func (r *Reloader) DirectEdit(ctx context.Context, sessionID string, req domain.DirectEditRequest) domain.Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current.DirectEdit(ctx, sessionID, req)
}

func (r *Reloader) HandleDrop(ctx context.Context, sessionID string, req domain.DropRequest) domain.Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current.HandleDrop(ctx, sessionID, req)
}

// WatchDescription reloads r whenever the file at path is written or replaced, until
// ctx is done. A description that fails to load or validate is logged and skipped.
func WatchDescription(ctx context.Context, path string, r *Reloader, logger *slog.Logger) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()
	// Editors often replace the file instead of writing it, so watch the directory.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	logger.Info("Watching description", "path", abs)

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			logger.Debug("Change detected", "event", event.String())
			pending = time.After(reloadDelay)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error", "err", err)
		case <-pending:
			pending = nil
			if err := r.Reload(); err != nil {
				logger.Error("Description reload failed, keeping the previous one", "path", abs, "err", err)
				continue
			}
			logger.Info("Description reloaded", "path", abs)
		}
	}
}
