// Package queue defines message payloads exchanged over the message broker
// together with the publisher and the audit consumer.
package queue

// Event types carried in CustomerEvent.Type.
const (
	EventCustomerRegistered = "customer.registered"
	EventCustomerCreated    = "customer.created"
	EventCustomerUpdated    = "customer.updated"
	EventCustomerDeleted    = "customer.deleted"
)

// CustomerEvent is published after a customer write commits.  It carries
// identity fields only; the password hash is never part of an event.
// ActorID is the authenticated customer that performed the write, empty
// for self-registration.
type CustomerEvent struct {
	Type       string   `json:"type"`
	CustomerID string   `json:"customer_id"`
	Username   string   `json:"username,omitempty"`
	Email      string   `json:"email,omitempty"`
	ActorID    string   `json:"actor_id,omitempty"`
	Fields     []string `json:"fields,omitempty"` // changed fields for customer.updated
	OccurredAt string   `json:"occurred_at"`
}
