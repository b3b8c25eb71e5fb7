// Package discovery implements the Home Assistant MQTT discovery engine.
//
// Inbound radio events are classified into sub-entities (sensors, binary
// sensors, switches) on their device record, stored in the entity state
// store under a deterministic entity id, and announced as retained
// discovery documents under the discovery prefix. Inbound MQTT commands on
// the cmd topic namespace are translated to RF functions and forwarded to
// the transceiver. Bridge-level identity (coordinator info, version, log
// level) is published as its own set of discovery entities.
package discovery
