// Package events publishes reservation lifecycle notifications for the order
// and ops collaborators. Publishing is best effort: a broker outage must never
// fail a reservation operation.
package events

const (
	KindCreated   = "reservation.created"
	KindCommitted = "reservation.committed"
	KindReleased  = "reservation.released"
	KindSweep     = "reservation.sweep"
)

type Event struct {
	Kind          string `json:"kind"`
	ReservationID string `json:"reservation_id,omitempty"`
	ProductID     string `json:"product_id,omitempty"`
	VariantID     string `json:"variant_id,omitempty"`
	Quantity      int    `json:"quantity,omitempty"`
	OrderID       string `json:"order_id,omitempty"`
	Expired       int    `json:"expired,omitempty"` // sweep summaries only
	At            string `json:"at"`
}

type Publisher interface {
	Publish(ev Event) error
	Close()
}

// Nop is the publisher used when AMQP_URL is unset and in tests.
type Nop struct{}

func (Nop) Publish(Event) error { return nil }
func (Nop) Close()              {}
