package domain

// Reservation statuses. Active is the only non-terminal state: committed,
// released and expired rows never transition again.
const (
	ReservationActive    = "active"
	ReservationCommitted = "committed"
	ReservationReleased  = "released"
	ReservationExpired   = "expired"
)

// Reservation is a temporary hold on stock from one (product, variant) pool.
// Exactly one of UserID/SessionID identifies the holder. OrderID is set only
// once the reservation is committed. Timestamps are RFC3339 UTC.
type Reservation struct {
	ID        string `db:"id" json:"id"`
	ProductID string `db:"product_id" json:"product_id"`
	VariantID string `db:"variant_id" json:"variant_id,omitempty"` // "" = base product pool
	Quantity  int    `db:"quantity" json:"quantity"`
	UserID    string `db:"user_id" json:"user_id,omitempty"`
	SessionID string `db:"session_id" json:"-"`
	Status    string `db:"status" json:"status"`
	OrderID   string `db:"order_id" json:"order_id,omitempty"`
	ExpiresAt string `db:"expires_at" json:"expires_at"`
	CreatedAt string `db:"created_at" json:"created_at"`
	UpdatedAt string `db:"updated_at" json:"updated_at"`
}
