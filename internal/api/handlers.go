package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rfxcom2mqtt/backend/internal/infrastructure/config"
)

// handleGetSettings returns the current settings snapshot.
func (s *Server) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.settings.Get())
}

// handleUpdateSettings overlays the request body onto the current settings
// and persists the result. Fields absent from the body keep their value.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeBadRequest(w, "failed to read request body")
		return
	}
	if !json.Valid(body) {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	err = s.settings.Apply(func(settings *config.Settings) {
		//nolint:errcheck // validity checked above; partial overlays are intended
		json.Unmarshal(body, settings)
	})
	if err != nil {
		s.logger.Warn("settings update rejected", "error", err)
		writeBadRequest(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.settings.Get())
}

// handleListDevices returns every known device record.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.devices.GetAll())
}

// handleListStates returns the state of every known entity.
func (s *Server) handleListStates(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.state.GetAll())
}

// handleGetDevice returns one device record.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.devices.Exists(id) {
		writeNotFound(w, "unknown device")
		return
	}
	writeJSON(w, http.StatusOK, s.devices.Get(id))
}

// handleGetDeviceState returns the states of every entity belonging to a
// device.
func (s *Server) handleGetDeviceState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.devices.Exists(id) {
		writeNotFound(w, "unknown device")
		return
	}
	writeJSON(w, http.StatusOK, s.state.GetByDeviceID(id))
}

type renameRequest struct {
	Name     string `json:"name"`
	UnitCode int    `json:"unitCode,omitempty"`
}

// handleRenameDevice applies a display-name override for a device, or for
// one of its units when unitCode is set.
func (s *Server) handleRenameDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeBadRequest(w, "name is required")
		return
	}
	if !s.devices.Exists(id) {
		writeNotFound(w, "unknown device")
		return
	}

	if err := s.rename(id, req.Name, req.UnitCode); err != nil {
		s.logger.Error("rename failed", "device", id, "error", err)
		writeInternalError(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.devices.Get(id))
}

type deviceActionRequest struct {
	EntityID string `json:"entityId"`
	Action   string `json:"action"`
}

// handleDeviceAction replays a command for one entity of a device through
// the bridge's command path.
func (s *Server) handleDeviceAction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req deviceActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Action == "" {
		writeBadRequest(w, "action is required")
		return
	}
	if !s.devices.Exists(id) {
		writeNotFound(w, "unknown device")
		return
	}

	err := s.action(Action{
		Type:     "device",
		Action:   req.Action,
		DeviceID: id,
		EntityID: req.EntityID,
	})
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleBridgeInfo returns the bridge identity: coordinator hardware,
// bridge version and current log level.
func (s *Server) handleBridgeInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.bridgeInfo())
}

type bridgeActionRequest struct {
	Action string `json:"action"`
}

// handleBridgeAction runs a bridge-level action ("restart" or "stop").
func (s *Server) handleBridgeAction(w http.ResponseWriter, r *http.Request) {
	var req bridgeActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.action(Action{Type: "bridge", Action: req.Action}); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
