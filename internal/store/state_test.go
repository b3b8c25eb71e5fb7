package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rfxcom2mqtt/backend/internal/infrastructure/logging"
)

func TestStateStoreSetDeepMerges(t *testing.T) {
	s := NewStateStore(testCacheConfig(), t.TempDir(), logging.Default())

	s.Set("AC_011B_1", map[string]any{
		"id":      "0x011B",
		"command": "On",
		"nested":  map[string]any{"a": 1, "b": 2},
	}, "event")
	got := s.Set("AC_011B_1", map[string]any{
		"command": "Off",
		"nested":  map[string]any{"b": 3},
	}, "event")

	if got["command"] != "Off" {
		t.Errorf("command = %v, want Off", got["command"])
	}
	if got["id"] != "0x011B" {
		t.Error("previous fields must survive a merge")
	}
	nested, ok := got["nested"].(map[string]any)
	if !ok {
		t.Fatalf("nested = %T, want map", got["nested"])
	}
	if nested["a"] != 1 || nested["b"] != 3 {
		t.Errorf("nested merge wrong: %v", nested)
	}
}

func TestStateStoreGetAbsentReturnsEmpty(t *testing.T) {
	s := NewStateStore(testCacheConfig(), t.TempDir(), logging.Default())
	got := s.Get("unseen")
	if got == nil || len(got) != 0 {
		t.Errorf("Get(unseen) = %v, want empty payload", got)
	}
}

func TestStateStoreDeviceLookups(t *testing.T) {
	s := NewStateStore(testCacheConfig(), t.TempDir(), logging.Default())

	s.Set("AC_011B_1", map[string]any{"id": "0x011B", "unitCode": "1", "command": "On"}, "event")
	s.Set("AC_011B_2", map[string]any{"id": "0x011B", "unitCode": "2", "command": "Off"}, "event")
	s.Set("TH1_AABB", map[string]any{"id": "0xAABB", "temperature": "19"}, "event")

	byDevice := s.GetByDeviceID("0x011B")
	if len(byDevice) != 2 {
		t.Fatalf("GetByDeviceID returned %d states, want 2", len(byDevice))
	}

	unit := s.GetByDeviceIDAndUnitCode("0x011B", "2")
	if unit == nil || unit["command"] != "Off" {
		t.Errorf("GetByDeviceIDAndUnitCode = %v, want unit 2 state", unit)
	}

	if s.GetByDeviceIDAndUnitCode("0x011B", "9") != nil {
		t.Error("unknown unit code must return nil")
	}
	if s.GetByDeviceID("0xFFFF") != nil {
		t.Error("unknown device must return no states")
	}
}

func TestStateStoreUnitCodeMatchesNumericField(t *testing.T) {
	s := NewStateStore(testCacheConfig(), t.TempDir(), logging.Default())

	// A reloaded snapshot types numbers as float64.
	s.Set("AC_011B_1", map[string]any{"id": "0x011B", "unitCode": float64(1)}, "event")

	if s.GetByDeviceIDAndUnitCode("0x011B", "1") == nil {
		t.Error("numeric unitCode field must match its string form")
	}
}

func TestStateStorePersistence(t *testing.T) {
	dir := t.TempDir()
	logger := logging.Default()

	s := NewStateStore(testCacheConfig(), dir, logger)
	s.Start()
	s.Set("AC_011B_1", map[string]any{"id": "0x011B", "command": "On"}, "event")
	s.Stop()

	if _, err := os.Stat(filepath.Join(dir, "state.json")); err != nil {
		t.Fatalf("snapshot not written: %v", err)
	}

	reloaded := NewStateStore(testCacheConfig(), dir, logger)
	reloaded.Start()
	defer reloaded.Stop()

	got := reloaded.Get("AC_011B_1")
	if got["command"] != "On" {
		t.Errorf("state lost on reload: %v", got)
	}
}

func TestStateStoreCorruptSnapshotStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "state.json"), []byte("[oops"), 0600); err != nil {
		t.Fatal(err)
	}

	s := NewStateStore(testCacheConfig(), dir, logging.Default())
	s.Start()
	defer s.Stop()

	if len(s.GetAll()) != 0 {
		t.Error("corrupt snapshot must yield an empty store")
	}
}

func TestStateStoreRemove(t *testing.T) {
	s := NewStateStore(testCacheConfig(), t.TempDir(), logging.Default())
	s.Set("AC_011B_1", map[string]any{"id": "0x011B"}, "event")
	s.Remove("AC_011B_1")
	if s.Exists("AC_011B_1") {
		t.Error("state still present after Remove")
	}
}
