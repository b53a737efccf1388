package config

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// FileWatcher polls file modification times and triggers a callback on change.
// Files that appear after the first scan count as changed.
type FileWatcher struct {
	paths     []string
	interval  time.Duration
	onChange  func(path string)
	log       zerolog.Logger
	lastMTime map[string]time.Time
}

// NewFileWatcher creates a watcher for given paths and interval.
func NewFileWatcher(paths []string, interval time.Duration, log zerolog.Logger, onChange func(string)) *FileWatcher {
	return &FileWatcher{
		paths:     paths,
		interval:  interval,
		onChange:  onChange,
		log:       log,
		lastMTime: make(map[string]time.Time),
	}
}

// Run polls until ctx is done. The first scan only records mtimes.
func (w *FileWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	w.scanAll(true)
	for {
		select {
		case <-ticker.C:
			w.scanAll(false)
		case <-ctx.Done():
			return
		}
	}
}

// scanAll checks mtimes and invokes onChange for files that changed since last scan.
func (w *FileWatcher) scanAll(prime bool) {
	for _, p := range w.paths {
		fi, err := os.Stat(p)
		if err != nil {
			continue
		}
		mt := fi.ModTime()
		last, ok := w.lastMTime[p]
		w.lastMTime[p] = mt
		if prime || (ok && !mt.After(last)) {
			continue
		}
		w.log.Info().Str("path", p).Msg("content changed")
		if w.onChange != nil {
			w.onChange(p)
		}
	}
}

// Reloader re-resolves a profile whenever its files change and hands the new
// Settings to apply. Invalid edits are logged and ignored.
type Reloader struct {
	loader  *Loader
	profile string
	o       Overrides
	apply   func(Settings)
	log     zerolog.Logger
}

func NewReloader(l *Loader, profile string, o Overrides, log zerolog.Logger, apply func(Settings)) *Reloader {
	return &Reloader{loader: l, profile: profile, o: o, apply: apply, log: log}
}

// Watch blocks, polling every interval until ctx is done.
func (r *Reloader) Watch(ctx context.Context, interval time.Duration) {
	NewFileWatcher(r.loader.Paths(r.profile), interval, r.log, func(string) { r.Reload() }).Run(ctx)
}

// Reload drops the cache and applies the freshly resolved profile.
func (r *Reloader) Reload() bool {
	r.loader.Invalidate()
	_, s, err := r.loader.Resolve(r.profile, r.o)
	if err != nil {
		r.log.Error().Err(err).Str("profile", r.profile).Msg("reload rejected")
		return false
	}
	r.apply(s)
	r.log.Info().Str("profile", r.profile).Str("version", s.Version).Msg("content reloaded")
	return true
}
