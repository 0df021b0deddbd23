// Package store holds the in-memory view of dashboard state.
//
// Every container here is an explicit observable: consumers read snapshots or
// register change callbacks; only the message router mutates. Entity stores
// are last-write-wins by local arrival time: the push channel and the change
// feed are not ordered relative to each other, and the stores make no attempt
// to reorder them.
package store
