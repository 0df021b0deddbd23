// Package connection implements the Connection Manager component.
//
// The Connection Manager:
//   - Owns the single logical WebSocket connection for a client session
//   - Exposes the connection lifecycle state as an observable value
//   - Sends keep-alive pings while open (heartbeat monitor)
//   - Hands abnormal closes to the Reconnection Controller; transport and
//     retry policy stay separate
//   - Forwards inbound frames to the Message Router
package connection
