// Package model defines shared data types used across the realtime client.
//
// Conventions:
//   - Entity updates are keyed by entity id and last-write-wins by local
//     arrival time, regardless of which source produced them.
//   - Timestamps are local wall-clock time.Time; stores never reorder by
//     server timestamps.
//   - IDs: opaque strings (the dashboard issues UUIDs, but nothing here
//     depends on that).
package model
