// Package store holds the persistent in-memory stores of the bridge: the
// device registry (one record per physical radio device, with its classified
// sub-entities) and the entity state store (last-known payload per derived
// entity id).
//
// Both stores share the same persistence contract. On Start they load a JSON
// snapshot from the data directory if one exists; a corrupt file is logged
// and replaced with an empty store. A background ticker writes snapshots on
// the configured interval, and Stop writes a final snapshot. Disk errors are
// logged and swallowed; the stores keep operating in memory.
package store
