package repos

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"vendora/internal/domain"
)

// ReservationRepo owns the reservation rows and every transaction that
// decides against them. Availability is always derived, never stored:
// available = stock_qty - sum(active unexpired holds) for the pool.
type ReservationRepo struct{ db *sqlx.DB }

func NewReservationRepo(db *sqlx.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationCols = `id, product_id, variant_id, quantity, user_id, session_id, status, order_id, expires_at, created_at, updated_at`

// poolStock resolves the pool's stock_qty, reporting missing or inactive
// products and unknown variants as not-found.
func poolStock(q sqlx.Queryer, productID, variantID string) (int, error) {
	var p struct {
		Stock  int  `db:"stock_qty"`
		Active bool `db:"active"`
	}
	if err := sqlx.Get(q, &p, `SELECT stock_qty, active FROM products WHERE id = ?`, productID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrProductNotFound
		}
		return 0, err
	}
	if !p.Active {
		return 0, domain.ErrProductNotFound
	}
	if variantID == "" {
		return p.Stock, nil
	}
	var stock int
	if err := sqlx.Get(q, &stock, `SELECT stock_qty FROM product_variants WHERE id = ? AND product_id = ?`, variantID, productID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrVariantNotFound
		}
		return 0, err
	}
	return stock, nil
}

func heldActive(q sqlx.Queryer, productID, variantID, now string) (int, error) {
	var held int
	err := sqlx.Get(q, &held, `
		SELECT COALESCE(SUM(quantity), 0) FROM reservations
		WHERE product_id = ? AND variant_id = ? AND status = 'active' AND expires_at > ?
	`, productID, variantID, now)
	return held, err
}

// availableFor is the one derivation of sellable quantity. Any caller that
// writes on the back of this number must pass the transaction the write will
// run in; q = db is only for read-only snapshots.
func availableFor(q sqlx.Queryer, productID, variantID, now string) (available, stock int, err error) {
	stock, err = poolStock(q, productID, variantID)
	if err != nil {
		return 0, 0, err
	}
	held, err := heldActive(q, productID, variantID, now)
	if err != nil {
		return 0, 0, err
	}
	return stock - held, stock, nil
}

// Reserve inserts the hold if its pool can cover it. Check and insert share
// one transaction on the single write connection, so two competing holds
// resolve in serial order and the loser sees the winner's row.
func (r *ReservationRepo) Reserve(res *domain.Reservation) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	available, _, err := availableFor(tx, res.ProductID, res.VariantID, res.CreatedAt)
	if err != nil {
		return err
	}
	if available < res.Quantity {
		return domain.ErrInsufficientStock
	}
	if _, err := tx.Exec(`
		INSERT INTO reservations(`+reservationCols+`)
		VALUES (?, ?, ?, ?, ?, ?, 'active', '', ?, ?, ?)
	`, res.ID, res.ProductID, res.VariantID, res.Quantity, res.UserID, res.SessionID,
		res.ExpiresAt, res.CreatedAt, res.UpdatedAt); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *ReservationRepo) Get(id string) (domain.Reservation, error) {
	var res domain.Reservation
	err := r.db.Get(&res, `SELECT `+reservationCols+` FROM reservations WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Reservation{}, domain.ErrReservationNotFound
	}
	return res, err
}

// Commit converts an active, unexpired hold into a committed one and consumes
// the stock it was holding, all in one transaction. A hold found past its
// deadline is marked expired before the error returns, the same transition
// the sweeper would have applied.
func (r *ReservationRepo) Commit(id, orderID string) (domain.Reservation, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return domain.Reservation{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var res domain.Reservation
	err = tx.Get(&res, `SELECT `+reservationCols+` FROM reservations WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Reservation{}, domain.ErrReservationNotFound
	}
	if err != nil {
		return domain.Reservation{}, err
	}
	if res.Status != domain.ReservationActive {
		return res, domain.ErrInvalidState
	}

	now := domain.NowUTC()
	if res.ExpiresAt <= now {
		if _, err := tx.Exec(`UPDATE reservations SET status = 'expired', updated_at = ? WHERE id = ?`, now, id); err != nil {
			return res, err
		}
		if err := tx.Commit(); err != nil {
			return res, err
		}
		res.Status = domain.ReservationExpired
		res.UpdatedAt = now
		return res, domain.ErrReservationExpired
	}

	// Stock may have shrunk since the hold was granted (manual corrections);
	// the decrement only succeeds when the full quantity is still there.
	var dec sql.Result
	if res.VariantID == "" {
		dec, err = tx.Exec(`
			UPDATE products SET stock_qty = stock_qty - ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ? AND stock_qty >= ?
		`, res.Quantity, res.ProductID, res.Quantity)
	} else {
		dec, err = tx.Exec(`
			UPDATE product_variants SET stock_qty = stock_qty - ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ? AND stock_qty >= ?
		`, res.Quantity, res.VariantID, res.Quantity)
	}
	if err != nil {
		return res, err
	}
	if n, _ := dec.RowsAffected(); n == 0 {
		return res, domain.ErrInsufficientStock
	}

	if _, err := tx.Exec(`
		UPDATE reservations SET status = 'committed', order_id = ?, updated_at = ? WHERE id = ?
	`, orderID, now, id); err != nil {
		return res, err
	}
	if err := tx.Commit(); err != nil {
		return res, err
	}
	res.Status = domain.ReservationCommitted
	res.OrderID = orderID
	res.UpdatedAt = now
	return res, nil
}

// Release moves an active hold to released. The conditional update makes it
// idempotent: repeated or misdirected releases affect zero rows and that is
// not an error. Returns whether a row actually transitioned.
func (r *ReservationRepo) Release(id string) (bool, error) {
	res, err := r.db.Exec(`
		UPDATE reservations SET status = 'released', updated_at = ? WHERE id = ? AND status = 'active'
	`, domain.NowUTC(), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ExpireDue flips every lapsed active hold to expired and reports how many.
func (r *ReservationRepo) ExpireDue() (int64, error) {
	now := domain.NowUTC()
	res, err := r.db.Exec(`
		UPDATE reservations SET status = 'expired', updated_at = ? WHERE status = 'active' AND expires_at <= ?
	`, now, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// PurgeTerminal deletes released and expired rows last touched before cutoff.
// Committed rows are kept: they are the audit link back from orders.
func (r *ReservationRepo) PurgeTerminal(cutoff string) (int64, error) {
	res, err := r.db.Exec(`
		DELETE FROM reservations WHERE status IN ('released', 'expired') AND updated_at < ?
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Available is the read-only snapshot for display surfaces. Decision paths
// never use it; Reserve and Commit run their own checks in-transaction.
func (r *ReservationRepo) Available(productID, variantID string) (available, stock int, err error) {
	return availableFor(r.db, productID, variantID, domain.NowUTC())
}

// ActiveCount reports rows currently holding stock; main seeds the
// active-holds gauge with it on startup.
func (r *ReservationRepo) ActiveCount() (int, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM reservations WHERE status = 'active'`)
	return n, err
}
