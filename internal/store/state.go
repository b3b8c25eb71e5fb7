package store

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/rfxcom2mqtt/backend/internal/infrastructure/config"
	"github.com/rfxcom2mqtt/backend/internal/infrastructure/logging"
)

// StateStore keeps the last-known payload per derived entity id and
// snapshots the whole map to state.json. Keys are entity ids, a distinct
// namespace from device ids.
//
// Thread Safety:
//   - All methods are safe for concurrent use. Returned payloads are deep
//     copies.
type StateStore struct {
	mu    sync.RWMutex
	state map[string]map[string]any

	path   string
	enable bool
	logger *logging.Logger
	saver  *saver
}

// NewStateStore creates a state store persisting to state.json under dataDir.
func NewStateStore(cfg config.CacheStateConfig, dataDir string, logger *logging.Logger) *StateStore {
	interval := time.Duration(cfg.SaveInterval) * time.Minute
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	s := &StateStore{
		state:  make(map[string]map[string]any),
		path:   filepath.Join(dataDir, "state.json"),
		enable: cfg.Enable,
		logger: logger,
	}
	s.saver = newSaver(interval, s.save)
	return s
}

// Start loads the snapshot and begins interval saves.
func (s *StateStore) Start() {
	s.mu.Lock()
	loaded := make(map[string]map[string]any)
	if loadJSON(s.path, &loaded, s.logger) {
		s.state = loaded
	}
	s.mu.Unlock()
	s.saver.start()
}

// Stop halts interval saves and writes a final snapshot.
func (s *StateStore) Stop() {
	s.saver.stop()
	s.save()
}

func (s *StateStore) save() {
	if !s.enable {
		s.logger.Debug("state snapshot disabled, not saving")
		return
	}
	s.mu.RLock()
	snapshot := make(map[string]map[string]any, len(s.state))
	for k, v := range s.state {
		snapshot[k] = deepMerge(v, nil)
	}
	s.mu.RUnlock()
	saveJSON(s.path, snapshot, s.logger)
}

// Exists reports whether state is held for entityID.
func (s *StateStore) Exists(entityID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.state[entityID]
	return ok
}

// Get returns a copy of the state for entityID, or an empty payload when
// unseen.
func (s *StateStore) Get(entityID string) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.state[entityID]; ok {
		return deepMerge(v, nil)
	}
	return map[string]any{}
}

// GetAll returns a copy of all entity states keyed by entity id.
func (s *StateStore) GetAll() map[string]map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]map[string]any, len(s.state))
	for k, v := range s.state {
		out[k] = deepMerge(v, nil)
	}
	return out
}

// Set deep-merges update onto the stored state for entityID and returns the
// merged payload. Previous fields survive unless overwritten. reason tags
// the origin of the update ("event", "command") for the debug log.
func (s *StateStore) Set(entityID string, update map[string]any, reason string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	merged := deepMerge(s.state[entityID], update)
	s.state[entityID] = merged
	s.logger.Debug("entity state updated", "entity", entityID, "reason", reason)
	return deepMerge(merged, nil)
}

// Remove deletes the state for entityID.
func (s *StateStore) Remove(entityID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.state, entityID)
	s.logger.Debug("entity state removed", "entity", entityID)
}

// GetByDeviceID returns the states whose embedded id field matches
// deviceID. State keys are entity ids, so device lookups are a linear scan
// over all entities; fine at the scale of a home RF network.
func (s *StateStore) GetByDeviceID(deviceID string) []map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []map[string]any
	for _, v := range s.state {
		if fieldString(v, "id") == deviceID {
			out = append(out, deepMerge(v, nil))
		}
	}
	return out
}

// GetByDeviceIDAndUnitCode returns the first state matching both the
// embedded id and unitCode fields, or nil when none matches. Uniqueness is
// not enforced at this layer.
func (s *StateStore) GetByDeviceIDAndUnitCode(deviceID, unitCode string) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.state {
		if fieldString(v, "id") == deviceID && fieldString(v, "unitCode") == unitCode {
			return deepMerge(v, nil)
		}
	}
	return nil
}

// fieldString reads a payload field as a string regardless of how the JSON
// decoder typed it.
func fieldString(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
