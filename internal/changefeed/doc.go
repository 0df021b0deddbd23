// Package changefeed delivers row-level database change events for entities
// the client is subscribed to.
//
// The dashboard backend publishes row changes on a Postgres NOTIFY channel.
// PostgresFeed holds a connection in LISTEN mode and demuxes payloads to
// per-row watchers; MemoryFeed is the in-process equivalent. An Adapter binds
// one watch to the message router so feed updates and push updates converge
// on the same stores.
package changefeed
