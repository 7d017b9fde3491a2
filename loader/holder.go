package loader

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/artpar/wireschema/adapters/metrics"
	"github.com/artpar/wireschema/core/schema"
)

// Holder provides thread-safe access to a loaded schema with hot reload
// support for file-backed URLs.
type Holder struct {
	mu       sync.RWMutex
	schema   *schema.Schema
	url      string
	path     string // file path when the URL is file-backed, "" otherwise
	loader   *Loader
	logger   zerolog.Logger
	watcher  *fsnotify.Watcher
	onChange []func(*schema.Schema)
	stopCh   chan struct{}

	// Metrics, when set, records reload outcomes. Set before WatchFile.
	Metrics *metrics.Collector
}

// NewHolder creates a holder and loads the initial schema.
func NewHolder(url string, l *Loader, logger zerolog.Logger) (*Holder, error) {
	s, err := l.Load(url)
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	h := &Holder{
		schema: s,
		url:    url,
		loader: l,
		logger: logger,
		stopCh: make(chan struct{}),
	}
	if prefix, rest := splitURL(url); prefix == "file" {
		if h.path, err = filepath.Abs(rest); err != nil {
			s.Unref()
			return nil, fmt.Errorf("absolute path: %w", err)
		}
	}
	return h, nil
}

// Get returns the current schema (thread-safe). The holder keeps its own
// reference; callers that retain the schema across reloads must Ref it.
func (h *Holder) Get() *schema.Schema {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.schema
}

// Reload reloads the schema from its URL. On failure the old schema is
// kept and an error returned.
func (h *Holder) Reload() error {
	next, err := h.loader.Load(h.url)
	if err != nil {
		h.logger.Error().Err(err).Msg("schema reload failed, keeping old schema")
		if h.Metrics != nil {
			h.Metrics.SchemaReloadErrors.Inc()
		}
		return fmt.Errorf("reload schema: %w", err)
	}

	h.mu.Lock()
	old := h.schema
	h.schema = next
	h.mu.Unlock()
	old.Unref()

	for _, fn := range h.onChange {
		fn(next)
	}
	if h.Metrics != nil {
		h.Metrics.SchemaReloads.Inc()
	}
	h.logger.Info().Str("url", h.url).Msg("schema reloaded successfully")
	return nil
}

// OnChange registers a callback to be called when the schema changes.
func (h *Holder) OnChange(fn func(*schema.Schema)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = append(h.onChange, fn)
}

// WatchFile starts watching a file-backed schema for changes.
// Changes trigger automatic reload.
func (h *Holder) WatchFile() error {
	if h.path == "" {
		return fmt.Errorf("schema url %q is not file-backed", h.url)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	h.watcher = watcher

	// Watch the directory (more reliable for editors that do atomic saves)
	if err := watcher.Add(filepath.Dir(h.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}

	go h.watchLoop()

	h.logger.Info().Str("path", h.path).Msg("watching schema file for changes")
	return nil
}

// Stop stops watching and drops the holder's schema reference.
func (h *Holder) Stop() {
	close(h.stopCh)
	if h.watcher != nil {
		h.watcher.Close()
	}

	h.mu.Lock()
	s := h.schema
	h.schema = nil
	h.mu.Unlock()
	if s != nil {
		s.Unref()
	}
}

func (h *Holder) watchLoop() {
	filename := filepath.Base(h.path)

	for {
		select {
		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			// React to write or create (atomic save = create)
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				h.logger.Debug().
					Str("event", event.Op.String()).
					Str("file", event.Name).
					Msg("schema file changed")

				if err := h.Reload(); err != nil {
					h.logger.Error().Err(err).Msg("file watch reload failed")
				}
			}

		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().Err(err).Msg("file watcher error")

		case <-h.stopCh:
			return
		}
	}
}
