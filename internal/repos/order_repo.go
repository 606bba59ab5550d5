package repos

import (
	"github.com/jmoiron/sqlx"

	"vendora/internal/domain"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

// Create inserts the order header. Status starts as PLACED and only moves to
// FAILED when the reservation commit behind it falls through.
func (r *OrderRepo) Create(o *domain.Order) error {
	_, err := r.db.Exec(`
	  INSERT INTO orders
	    (id, reservation_id, product_id, variant_id, quantity, user_id, session_id, customer_name, customer_email, status, created_at)
	  VALUES
	    (?, ?, ?, ?, ?, ?, ?, ?, ?, 'PLACED', ?)
	`, o.ID, o.ReservationID, o.ProductID, o.VariantID, o.Quantity, o.UserID, o.SessionID,
		o.CustomerName, o.CustomerEmail, o.CreatedAt)
	return err
}

// Get returns the order row; callers treat sql.ErrNoRows as not-found.
func (r *OrderRepo) Get(id string) (domain.Order, error) {
	var o domain.Order
	err := r.db.Get(&o, `
		SELECT id, reservation_id, product_id, variant_id, quantity, user_id, session_id,
		       customer_name, customer_email, status, created_at
		FROM orders WHERE id = ?
	`, id)
	return o, err
}

func (r *OrderRepo) UpdateStatus(id, status string) error {
	_, err := r.db.Exec(`UPDATE orders SET status = ? WHERE id = ?`, status, id)
	return err
}
