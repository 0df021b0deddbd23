// Package session composes the realtime client: connection manager,
// reconnection controller, subscription registry, message router, REST resync
// and change-feed adapters, owned as one unit per authenticated user.
//
// Lifecycle: Start connects and begins routing; Teardown stops everything,
// leaving no goroutine, timer or watch behind. In between, Subscribe and
// Unsubscribe adjust the topic set and the row watches that mirror it.
package session
