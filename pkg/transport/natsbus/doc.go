// Package natsbus evaluates messages delivered over NATS.
//
// The bus joins a queue group on transport.nats.subject, so several
// instances share the load. Each delivered payload is a message (or a
// Telegram update) in JSON. The verdict is wrapped in an Envelope and
//
//   - sent to the reply subject when the sender used request/reply, and
//   - published on transport.nats.verdict_subject when a rule matched, or
//     for every message when publish_misses is set.
//
// W3C trace context is read from and written to message headers.
package natsbus
