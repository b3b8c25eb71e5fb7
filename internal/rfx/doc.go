// Package rfx defines the RFXCOM transceiver collaborator.
//
// The binary serial protocol itself is out of scope: the transceiver is an
// opaque event source delivering typed events plus a narrow command surface.
// This package holds the event model (a fixed identity core plus an open bag
// of protocol-specific measurement fields), the subtype label tables, group
// command detection, and a Mock implementation that deterministically replays
// a fixed set of sample events for development and tests.
package rfx
