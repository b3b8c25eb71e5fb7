// Package controller wires the bridge together and owns its lifecycle.
//
// All transport callbacks (RF events, MQTT messages, status updates, health
// check ticks) are funneled into channels consumed by a single dispatch
// loop, so the discovery engine and the stores see one handler at a time
// and per-device ordering follows arrival order. Shutdown stops the
// schedules, drains the loop, saves both stores and releases the transport
// connections. A restart request tears the whole controller down and the
// caller builds a fresh one from reloaded settings, so no event can be
// processed between stop and resume.
package controller
