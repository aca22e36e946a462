// Package relay turns an inbound text message into an outbound one.
//
// [Relay.Handle] classifies the message, resolves a linked track through a [services.Catalog]
// and a [services.VideoSearcher], then forwards the match to the configured recipient with a
// [services.Messenger]. Every path sends at most one message to the sender or the recipient,
// plus an optional confirmation to the sender after a successful forward.
//
// Resolution failures are answered with an apology to the sender. Only failures to reach the
// sender (or a malformed message) are returned as errors.
package relay
