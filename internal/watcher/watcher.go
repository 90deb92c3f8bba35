// Package watcher re-ingests a language corpus when its documents change on
// disk.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// Watcher watches one directory per language and fires a debounced callback
// when that language's documents change. A burst of writes (editor saves,
// rsync) collapses into a single callback per language.
type Watcher struct {
	documentsRoot string
	languages     []string
	extensions    []string
	onChange      func(lang string)
	debounce      time.Duration
	logger        *zap.Logger

	fs *fsnotify.Watcher

	mu     sync.Mutex
	timers map[string]*time.Timer
	done   chan struct{}
	once   sync.Once
}

// New creates a watcher over {documentsRoot}/{lang} for each language.
// onChange runs on a timer goroutine after the debounce window closes.
func New(documentsRoot string, languages, extensions []string, onChange func(lang string), logger *zap.Logger) *Watcher {
	return &Watcher{
		documentsRoot: documentsRoot,
		languages:     languages,
		extensions:    extensions,
		onChange:      onChange,
		debounce:      defaultDebounce,
		logger:        logger,
		timers:        make(map[string]*time.Timer),
		done:          make(chan struct{}),
	}
}

// Start begins watching. It returns after registering the language
// directories; event handling runs until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	w.fs = fs

	for _, lang := range w.languages {
		dir := filepath.Join(w.documentsRoot, lang)
		if err := fs.Add(dir); err != nil {
			_ = fs.Close()
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		w.logger.Info("watching documents", zap.String("lang", lang), zap.String("dir", dir))
	}

	go w.run(ctx)
	return nil
}

// Stop ends watching and cancels pending callbacks.
func (w *Watcher) Stop() {
	w.once.Do(func() {
		close(w.done)
		if w.fs != nil {
			_ = w.fs.Close()
		}
		w.mu.Lock()
		for _, t := range w.timers {
			t.Stop()
		}
		w.timers = make(map[string]*time.Timer)
		w.mu.Unlock()
	})
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Warn("watch error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	if !w.matchExtension(ev.Name) {
		return
	}
	lang := w.langFor(ev.Name)
	if lang == "" {
		return
	}
	w.logger.Debug("document changed",
		zap.String("op", ev.Op.String()),
		zap.String("path", ev.Name),
		zap.String("lang", lang))
	w.scheduleChange(lang)
}

// scheduleChange resets the language's debounce timer.
func (w *Watcher) scheduleChange(lang string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[lang]; ok {
		t.Stop()
	}
	w.timers[lang] = time.AfterFunc(w.debounce, func() {
		select {
		case <-w.done:
			return
		default:
		}
		w.onChange(lang)
	})
}

func (w *Watcher) matchExtension(path string) bool {
	if len(w.extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range w.extensions {
		if strings.ToLower(allowed) == ext {
			return true
		}
	}
	return false
}

// langFor maps an event path back to the language whose directory contains it.
func (w *Watcher) langFor(path string) string {
	dir := filepath.Base(filepath.Dir(path))
	for _, lang := range w.languages {
		if lang == dir {
			return lang
		}
	}
	return ""
}
