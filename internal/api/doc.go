// Package api provides the dashboard REST API client.
//
// The realtime session calls it after each (re)connect to resync entity state
// that push messages may have missed while the socket was down. Endpoints are
// relative to <origin>/api/v1:
//   - GET /bots
//   - GET /trades
//   - GET /strategies
package api
