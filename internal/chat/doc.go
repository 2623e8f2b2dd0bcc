// Package chat implements the realtime message router.
//
// A Server authenticates the socket handshake, registers a Client with the
// Hub and hands every inbound frame to the Router. The Hub subscribes each
// client to its private channel (user:<id>) and to one channel per guild in
// its credential. The Router validates payloads, escapes markup and publishes
// new_message / new_guild_message frames; rejected events come back to the
// sender as an error frame and the connection stays open.
//
// Frames are JSON objects in both directions:
//
//	{"event": "send_message", "data": {"recipientId": "u2", "message": "hi"}}
package chat
