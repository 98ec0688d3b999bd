package drivershim

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultWatchDebounce = 250 * time.Millisecond

// SettingsWatcherOptions tunes a SettingsWatcher.
type SettingsWatcherOptions struct {
	// Logger for reload outcomes; nil means silent.
	Logger Logger
	// Debounce coalesces editor write bursts into one reload. Zero picks
	// the default.
	Debounce time.Duration
}

// SettingsWatcher reloads a FileSettings store when the backing file
// changes on disk and posts a settings-changed event for the lifecycle
// pump to pick up on the next frame.
type SettingsWatcher struct {
	settings *FileSettings
	sink     EventSink
	log      Logger
	debounce time.Duration

	watcher *fsnotify.Watcher
	running atomic.Bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

func NewSettingsWatcher(settings *FileSettings, sink EventSink, opts SettingsWatcherOptions) *SettingsWatcher {
	if opts.Debounce <= 0 {
		opts.Debounce = defaultWatchDebounce
	}
	return &SettingsWatcher{
		settings: settings,
		sink:     sink,
		log:      ensureLogger(opts.Logger),
		debounce: opts.Debounce,
	}
}

// Start begins watching the settings file's directory. Watching the
// directory rather than the file survives the rename-and-replace save
// pattern of most editors.
func (w *SettingsWatcher) Start() error {
	if !w.running.CompareAndSwap(false, true) {
		return fmt.Errorf("settings watcher already running")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		w.running.Store(false)
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(w.settings.Path())); err != nil {
		fw.Close()
		w.running.Store(false)
		return fmt.Errorf("watching settings dir: %w", err)
	}

	w.watcher = fw
	w.stopCh = make(chan struct{})
	w.wg.Add(1)
	go w.loop()

	w.log.Info("watching settings file", "path", w.settings.Path())
	return nil
}

// Stop ends the watch and waits for the loop to exit. Safe to call when
// not running.
func (w *SettingsWatcher) Stop() {
	if !w.running.CompareAndSwap(true, false) {
		return
	}
	close(w.stopCh)
	w.watcher.Close()
	w.wg.Wait()
}

func (w *SettingsWatcher) loop() {
	defer w.wg.Done()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	target := filepath.Clean(w.settings.Path())
	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("settings watch error", "error", err)
		case <-timer.C:
			w.reload()
		}
	}
}

func (w *SettingsWatcher) reload() {
	if err := w.settings.Reload(); err != nil {
		w.log.Warn("settings reload failed", "path", w.settings.Path(), "error", err)
		return
	}
	w.log.Debug("settings reloaded", "path", w.settings.Path())
	if w.sink != nil {
		w.sink.PostEvent(Event{Type: EventDriverSettingsChanged})
	}
}
