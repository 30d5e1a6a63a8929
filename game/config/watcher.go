package config

import (
	"log"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/wricardo/sokoban/game/engine"
)

// debounce is the quiet period after the last change before the cache is
// refreshed.
const debounce = 100 * time.Millisecond

// Watcher refreshes a Manager's cache whenever a level file in its directory
// is written, created, renamed or removed. The changed path is sent on Events
// after the refresh; sends are dropped when nobody is reading.
type Watcher struct {
	watcher *fsnotify.Watcher
	manager *Manager
	Events  chan string
	closeCh chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewWatcher starts watching m's directory.
func NewWatcher(m *Manager) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(m.Dir()); err != nil {
		_ = fw.Close()
		return nil, err
	}

	w := &Watcher{
		watcher: fw,
		manager: m,
		Events:  make(chan string, 16),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Close stops the watcher and closes Events.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
		close(w.Events)
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.done)

	// Refresh once the directory has been quiet for the debounce window, so
	// a truncate followed by a write reloads the finished file.
	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending string
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !engine.IsLevelFile(event.Name) {
				continue
			}
			pending = event.Name
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			timerC = timer.C
		case <-timerC:
			timerC = nil
			w.refresh(pending)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Warning: level watcher error: %v", err)
		case <-w.closeCh:
			return
		}
	}
}

func (w *Watcher) refresh(name string) {
	if err := w.manager.RefreshCache(); err != nil {
		log.Printf("Warning: Failed to refresh level cache after %s: %v", name, err)
		return
	}
	log.Printf("Level file %s changed, configuration cache refreshed", name)

	select {
	case w.Events <- name:
	default:
	}
}
