// Package queue defines message payloads exchanged over the message broker.
package queue

// NotificationCreatedEvent is published after a transaction that
// created notification rows has committed. It carries enough for a
// push gateway or log consumer to act without querying the primary
// database. Delivery is at-least-once; EventID is a random UUID
// consumers can use as a dedup key when the broker redelivers.
type NotificationCreatedEvent struct {
	EventID    string   `json:"event_id"`
	Kind       string   `json:"kind"`
	RefID      uint64   `json:"ref_id"`
	Recipients []uint64 `json:"recipients"`
	Title      string   `json:"title"`
	Message    string   `json:"message"`
	CreatedAt  string   `json:"created_at"`
}
