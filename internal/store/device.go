package store

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/rfxcom2mqtt/backend/internal/infrastructure/config"
	"github.com/rfxcom2mqtt/backend/internal/infrastructure/logging"
)

// DeviceStore is the device registry. It keeps one DeviceRecord per physical
// device id and snapshots the whole map to devices.json.
//
// Thread Safety:
//   - All methods are safe for concurrent use. Returned records are deep
//     copies; mutate them and write back through Set.
type DeviceStore struct {
	mu      sync.RWMutex
	devices map[string]DeviceRecord

	path   string
	enable bool
	logger *logging.Logger
	saver  *saver
}

// NewDeviceStore creates a registry persisting to devices.json under dataDir.
func NewDeviceStore(cfg config.CacheStateConfig, dataDir string, logger *logging.Logger) *DeviceStore {
	interval := time.Duration(cfg.SaveInterval) * time.Minute
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	s := &DeviceStore{
		devices: make(map[string]DeviceRecord),
		path:    filepath.Join(dataDir, "devices.json"),
		enable:  cfg.Enable,
		logger:  logger,
	}
	s.saver = newSaver(interval, s.save)
	return s
}

// Start loads the snapshot and begins interval saves.
func (s *DeviceStore) Start() {
	s.mu.Lock()
	loaded := make(map[string]DeviceRecord)
	if loadJSON(s.path, &loaded, s.logger) {
		s.devices = loaded
	}
	s.mu.Unlock()
	s.saver.start()
}

// Stop halts interval saves and writes a final snapshot.
func (s *DeviceStore) Stop() {
	s.saver.stop()
	s.save()
}

func (s *DeviceStore) save() {
	if !s.enable {
		s.logger.Debug("device snapshot disabled, not saving")
		return
	}
	s.mu.RLock()
	snapshot := make(map[string]DeviceRecord, len(s.devices))
	for k, v := range s.devices {
		snapshot[k] = v.Clone()
	}
	s.mu.RUnlock()
	saveJSON(s.path, snapshot, s.logger)
}

// Exists reports whether a record for id is present.
func (s *DeviceStore) Exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.devices[id]
	return ok
}

// Get returns a copy of the record for id, or a fresh empty record when
// absent. Callers must not assume presence.
func (s *DeviceStore) Get(id string) DeviceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.devices[id]; ok {
		return rec.Clone()
	}
	return NewDeviceRecord(id)
}

// Set deep-merges update onto the stored record for id (or onto a fresh
// record when none exists), stores the result and returns a copy of it.
// Sub-entity maps absent from update are preserved.
func (s *DeviceStore) Set(id string, update DeviceRecord) DeviceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.devices[id]
	if !ok {
		cur = NewDeviceRecord(id)
	}
	merged := cur.merge(update)
	s.devices[id] = merged
	s.logger.Debug("device record updated", "id", id)
	return merged.Clone()
}

// GetAll returns a copy of the whole registry keyed by device id.
func (s *DeviceStore) GetAll() map[string]DeviceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]DeviceRecord, len(s.devices))
	for k, v := range s.devices {
		out[k] = v.Clone()
	}
	return out
}

// Remove deletes the record for id.
func (s *DeviceStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.devices, id)
	s.logger.Debug("device record removed", "id", id)
}
