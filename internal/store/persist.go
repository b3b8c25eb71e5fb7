package store

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/rfxcom2mqtt/backend/internal/infrastructure/logging"
)

// loadJSON reads a snapshot into v. A missing file is normal on first run;
// a corrupt file is logged and v is left untouched so the caller starts
// empty. The return value reports whether a snapshot was loaded.
func loadJSON(path string, v any, logger *logging.Logger) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("no snapshot to load", "file", path)
		} else {
			logger.Error("failed to read snapshot", "file", path, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		logger.Warn("corrupt snapshot, starting empty", "file", path, "error", err)
		return false
	}
	logger.Debug("loaded snapshot", "file", path)
	return true
}

// saveJSON writes v pretty-printed to path via a temp file and rename, so a
// crash mid-write leaves the previous snapshot intact. Errors are logged
// and swallowed.
func saveJSON(path string, v any, logger *logging.Logger) {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		logger.Error("failed to encode snapshot", "file", path, "error", err)
		return
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		logger.Error("failed to write snapshot", "file", path, "error", err)
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		logger.Error("failed to replace snapshot", "file", path, "error", err)
		return
	}
	logger.Debug("saved snapshot", "file", path)
}

// saver runs a save function on a fixed interval until stopped.
type saver struct {
	interval time.Duration
	save     func()
	done     chan struct{}
	wg       sync.WaitGroup
}

func newSaver(interval time.Duration, save func()) *saver {
	return &saver{interval: interval, save: save, done: make(chan struct{})}
}

func (s *saver) start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.save()
			case <-s.done:
				return
			}
		}
	}()
}

func (s *saver) stop() {
	close(s.done)
	s.wg.Wait()
}
