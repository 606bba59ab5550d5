package services_test

import (
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"vendora/internal/domain"
	"vendora/internal/events"
	"vendora/internal/metrics"
	"vendora/internal/repos"
	"vendora/internal/services"
)

// memdb opens the production schema in memory and adds fixtures the tests own
// outright, independent of the demo seed.
func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mustExec(t, db, `INSERT INTO products(id,title,description,price,active,stock_qty) VALUES
	  ('cap-wool','Wool Cap','',29.00,1,10),
	  ('belt-leather','Leather Belt','',45.00,1,5),
	  ('lamp-brass','Brass Lamp','',120.00,1,4),
	  ('chair-oak','Oak Chair','',240.00,0,8)`)
	mustExec(t, db, `INSERT INTO product_variants(id,product_id,name,stock_qty) VALUES
	  ('cap-wool-grey','cap-wool','Grey',6),
	  ('cap-wool-navy','cap-wool','Navy',3)`)
	return db
}

func mustExec(t *testing.T, db *sqlx.DB, q string, args ...any) {
	t.Helper()
	if _, err := db.Exec(q, args...); err != nil {
		t.Fatal(err)
	}
}

func newService(t *testing.T, db *sqlx.DB) *services.ReservationService {
	t.Helper()
	return services.NewReservationService(
		repos.NewStockRepo(db),
		repos.NewReservationRepo(db),
		events.Nop{},
		metrics.New(),
		15*time.Minute,
	)
}

// backdate pushes a reservation's deadline into the past, simulating a hold
// that lapsed without anyone touching it.
func backdate(t *testing.T, db *sqlx.DB, id string, ago time.Duration) {
	t.Helper()
	past := time.Now().UTC().Add(-ago).Format(time.RFC3339)
	mustExec(t, db, `UPDATE reservations SET expires_at = ? WHERE id = ?`, past, id)
}

func productStock(t *testing.T, db *sqlx.DB, id string) int {
	t.Helper()
	var n int
	if err := db.Get(&n, `SELECT stock_qty FROM products WHERE id = ?`, id); err != nil {
		t.Fatal(err)
	}
	return n
}

func variantStock(t *testing.T, db *sqlx.DB, id string) int {
	t.Helper()
	var n int
	if err := db.Get(&n, `SELECT stock_qty FROM product_variants WHERE id = ?`, id); err != nil {
		t.Fatal(err)
	}
	return n
}

func reservationStatus(t *testing.T, db *sqlx.DB, id string) string {
	t.Helper()
	var s string
	if err := db.Get(&s, `SELECT status FROM reservations WHERE id = ?`, id); err != nil {
		t.Fatal(err)
	}
	return s
}

func reservationCount(t *testing.T, db *sqlx.DB) int {
	t.Helper()
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM reservations`); err != nil {
		t.Fatal(err)
	}
	return n
}

func sessionHold(productID, variantID string, qty int) services.HoldRequest {
	return services.HoldRequest{ProductID: productID, VariantID: variantID, Quantity: qty, SessionID: "sess-1"}
}

func TestCreateCommit_Basic(t *testing.T) {
	db := memdb(t)
	svc := newService(t, db)

	res, err := svc.Create(sessionHold("cap-wool", "", 2))
	if err != nil {
		t.Fatal(err)
	}
	if res.ID == "" || res.Status != domain.ReservationActive {
		t.Fatalf("bad reservation: %+v", res)
	}

	exp, err := time.Parse(time.RFC3339, res.ExpiresAt)
	if err != nil {
		t.Fatalf("expires_at not RFC3339: %v", err)
	}
	if d := time.Until(exp); d < 14*time.Minute || d > 16*time.Minute {
		t.Fatalf("deadline should be ~15m out, got %s", d)
	}

	// stock untouched while the hold is only active
	if got := productStock(t, db, "cap-wool"); got != 10 {
		t.Fatalf("stock should stay 10 before commit, got %d", got)
	}

	committed, err := svc.Commit(res.ID, "order-1")
	if err != nil {
		t.Fatal(err)
	}
	if committed.Status != domain.ReservationCommitted || committed.OrderID != "order-1" {
		t.Fatalf("bad committed row: %+v", committed)
	}
	if got := productStock(t, db, "cap-wool"); got != 8 {
		t.Fatalf("want stock 8 after commit, got %d", got)
	}
	if got := testutil.ToFloat64(svc.Metrics.ActiveHolds); got != 0 {
		t.Fatalf("active gauge should be back to 0, got %v", got)
	}
}

func TestCreate_RejectsBadQuantity(t *testing.T) {
	db := memdb(t)
	svc := newService(t, db)

	for _, qty := range []int{0, -1, -50} {
		if _, err := svc.Create(sessionHold("cap-wool", "", qty)); !errors.Is(err, domain.ErrInvalidQuantity) {
			t.Fatalf("qty %d: want ErrInvalidQuantity, got %v", qty, err)
		}
	}
	if n := reservationCount(t, db); n != 0 {
		t.Fatalf("rejected holds must write nothing, found %d rows", n)
	}
}

func TestCreate_RequiresExactlyOneHolder(t *testing.T) {
	db := memdb(t)
	svc := newService(t, db)

	_, err := svc.Create(services.HoldRequest{ProductID: "cap-wool", Quantity: 1})
	if !errors.Is(err, domain.ErrMissingHolder) {
		t.Fatalf("no holder: want ErrMissingHolder, got %v", err)
	}
	_, err = svc.Create(services.HoldRequest{ProductID: "cap-wool", Quantity: 1, UserID: "u-1", SessionID: "s-1"})
	if !errors.Is(err, domain.ErrMissingHolder) {
		t.Fatalf("both holders: want ErrMissingHolder, got %v", err)
	}
	if n := reservationCount(t, db); n != 0 {
		t.Fatalf("rejected holds must write nothing, found %d rows", n)
	}
}

func TestCreate_UnknownPools(t *testing.T) {
	db := memdb(t)
	svc := newService(t, db)

	if _, err := svc.Create(sessionHold("no-such-product", "", 1)); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("want ErrProductNotFound, got %v", err)
	}
	if _, err := svc.Create(sessionHold("cap-wool", "no-such-variant", 1)); !errors.Is(err, domain.ErrVariantNotFound) {
		t.Fatalf("want ErrVariantNotFound, got %v", err)
	}
	// a variant id that exists under a different product is not found either
	if _, err := svc.Create(sessionHold("belt-leather", "cap-wool-grey", 1)); !errors.Is(err, domain.ErrVariantNotFound) {
		t.Fatalf("foreign variant: want ErrVariantNotFound, got %v", err)
	}
	// withdrawn products do not take holds
	if _, err := svc.Create(sessionHold("chair-oak", "", 1)); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("inactive product: want ErrProductNotFound, got %v", err)
	}
}

func TestCreate_InsufficientStock(t *testing.T) {
	db := memdb(t)
	svc := newService(t, db)

	// belt-leather has 5 in stock; a granted hold of 3 leaves room for 2
	if _, err := svc.Create(sessionHold("belt-leather", "", 3)); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(sessionHold("belt-leather", "", 3)); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("want ErrInsufficientStock, got %v", err)
	}
	if _, err := svc.Create(sessionHold("belt-leather", "", 2)); err != nil {
		t.Fatalf("hold for the exact remainder should succeed, got %v", err)
	}
}

func TestCreate_IgnoresLapsedHolds(t *testing.T) {
	db := memdb(t)
	svc := newService(t, db)

	// the whole pool is held, then the hold quietly lapses
	old, err := svc.Create(sessionHold("lamp-brass", "", 4))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(sessionHold("lamp-brass", "", 1)); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("want ErrInsufficientStock while hold is live, got %v", err)
	}
	backdate(t, db, old.ID, time.Minute)

	// no sweeper ran, but the lapsed hold no longer counts
	if _, err := svc.Create(sessionHold("lamp-brass", "", 4)); err != nil {
		t.Fatalf("lapsed hold must not block new holds, got %v", err)
	}
	// and committing the lapsed one is refused
	if _, err := svc.Commit(old.ID, "order-x"); !errors.Is(err, domain.ErrReservationExpired) {
		t.Fatalf("want ErrReservationExpired, got %v", err)
	}
}

func TestCommit_ExactlyOnce(t *testing.T) {
	db := memdb(t)
	svc := newService(t, db)

	res, err := svc.Create(sessionHold("cap-wool", "", 1))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Commit(res.ID, "order-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Commit(res.ID, "order-1"); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("second commit: want ErrInvalidState, got %v", err)
	}
	if _, err := svc.Commit(res.ID, "order-2"); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("commit under new order: want ErrInvalidState, got %v", err)
	}
	if got := productStock(t, db, "cap-wool"); got != 9 {
		t.Fatalf("stock must be decremented exactly once, got %d", got)
	}
}

func TestCommit_UnknownReservation(t *testing.T) {
	db := memdb(t)
	svc := newService(t, db)

	if _, err := svc.Commit("missing-id", "order-1"); !errors.Is(err, domain.ErrReservationNotFound) {
		t.Fatalf("want ErrReservationNotFound, got %v", err)
	}
}

func TestCommit_ExpiredMarksRow(t *testing.T) {
	db := memdb(t)
	svc := newService(t, db)

	res, err := svc.Create(sessionHold("belt-leather", "", 2))
	if err != nil {
		t.Fatal(err)
	}
	backdate(t, db, res.ID, time.Hour)

	if _, err := svc.Commit(res.ID, "order-1"); !errors.Is(err, domain.ErrReservationExpired) {
		t.Fatalf("want ErrReservationExpired, got %v", err)
	}
	// the rejected commit also flipped the row, same as a sweep would
	if s := reservationStatus(t, db, res.ID); s != domain.ReservationExpired {
		t.Fatalf("want row expired, got %s", s)
	}
	if got := productStock(t, db, "belt-leather"); got != 5 {
		t.Fatalf("expired commit must not touch stock, got %d", got)
	}
}

func TestCommit_StockCorrectedBelowHold(t *testing.T) {
	db := memdb(t)
	svc := newService(t, db)

	res, err := svc.Create(sessionHold("lamp-brass", "", 4))
	if err != nil {
		t.Fatal(err)
	}
	// ops shrinks the pool under the hold
	if err := svc.Stock.SetStock("lamp-brass", "", 2); err != nil {
		t.Fatal(err)
	}
	if qty, err := svc.Stock.Stock("lamp-brass", ""); err != nil || qty != 2 {
		t.Fatalf("stock read-back: qty=%d err=%v", qty, err)
	}
	if _, err := svc.Commit(res.ID, "order-1"); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("want ErrInsufficientStock, got %v", err)
	}
	if s := reservationStatus(t, db, res.ID); s != domain.ReservationActive {
		t.Fatalf("failed commit must leave the hold active, got %s", s)
	}
	if got := productStock(t, db, "lamp-brass"); got != 2 {
		t.Fatalf("failed commit must leave stock alone, got %d", got)
	}
}

func TestRelease_Idempotent(t *testing.T) {
	db := memdb(t)
	svc := newService(t, db)

	res, err := svc.Create(sessionHold("belt-leather", "", 5))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(sessionHold("belt-leather", "", 1)); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("pool should be exhausted, got %v", err)
	}

	if err := svc.Release(res.ID); err != nil {
		t.Fatal(err)
	}
	if s := reservationStatus(t, db, res.ID); s != domain.ReservationReleased {
		t.Fatalf("want released, got %s", s)
	}
	// the full quantity is sellable again
	if _, err := svc.Create(sessionHold("belt-leather", "", 5)); err != nil {
		t.Fatalf("released stock should be available, got %v", err)
	}

	// releasing again, or releasing garbage, stays silent
	if err := svc.Release(res.ID); err != nil {
		t.Fatalf("repeat release: %v", err)
	}
	if err := svc.Release("never-existed"); err != nil {
		t.Fatalf("unknown release: %v", err)
	}
}

func TestRelease_LeavesTerminalStatesAlone(t *testing.T) {
	db := memdb(t)
	svc := newService(t, db)

	res, err := svc.Create(sessionHold("cap-wool", "", 1))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Commit(res.ID, "order-1"); err != nil {
		t.Fatal(err)
	}
	if err := svc.Release(res.ID); err != nil {
		t.Fatalf("release after commit must succeed silently, got %v", err)
	}
	if s := reservationStatus(t, db, res.ID); s != domain.ReservationCommitted {
		t.Fatalf("committed row must stay committed, got %s", s)
	}
	if got := productStock(t, db, "cap-wool"); got != 9 {
		t.Fatalf("release after commit must not restock, got %d", got)
	}
}

func TestRelease_LapsedHoldStillReleases(t *testing.T) {
	db := memdb(t)
	svc := newService(t, db)

	res, err := svc.Create(sessionHold("cap-wool", "", 1))
	if err != nil {
		t.Fatal(err)
	}
	backdate(t, db, res.ID, time.Minute)
	if err := svc.Release(res.ID); err != nil {
		t.Fatal(err)
	}
	if s := reservationStatus(t, db, res.ID); s != domain.ReservationReleased {
		t.Fatalf("explicit release of a lapsed hold should land on released, got %s", s)
	}
}

func TestRoundTrip_Accounting(t *testing.T) {
	db := memdb(t)
	svc := newService(t, db)
	ledger := svc.Ledger

	baseline, _, err := ledger.Available("cap-wool", "")
	if err != nil {
		t.Fatal(err)
	}

	held, err := svc.Create(sessionHold("cap-wool", "", 3))
	if err != nil {
		t.Fatal(err)
	}
	if avail, _, _ := ledger.Available("cap-wool", ""); avail != baseline-3 {
		t.Fatalf("want available %d during hold, got %d", baseline-3, avail)
	}
	if err := svc.Release(held.ID); err != nil {
		t.Fatal(err)
	}
	if avail, _, _ := ledger.Available("cap-wool", ""); avail != baseline {
		t.Fatalf("create+release must restore availability, got %d want %d", avail, baseline)
	}

	held2, err := svc.Create(sessionHold("cap-wool", "", 3))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Commit(held2.ID, "order-1"); err != nil {
		t.Fatal(err)
	}
	avail, stock, err := ledger.Available("cap-wool", "")
	if err != nil {
		t.Fatal(err)
	}
	if stock != baseline-3 || avail != baseline-3 {
		t.Fatalf("create+commit must move stock exactly once: stock=%d avail=%d want %d", stock, avail, baseline-3)
	}
}

func TestVariantPools_Independent(t *testing.T) {
	db := memdb(t)
	svc := newService(t, db)
	ledger := svc.Ledger

	// drain the navy pool entirely
	res, err := svc.Create(sessionHold("cap-wool", "cap-wool-navy", 3))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(sessionHold("cap-wool", "cap-wool-navy", 1)); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("navy pool should be exhausted, got %v", err)
	}

	// the base pool and the grey pool are untouched
	if avail, _, _ := ledger.Available("cap-wool", ""); avail != 10 {
		t.Fatalf("base pool availability should stay 10, got %d", avail)
	}
	if avail, _, _ := ledger.Available("cap-wool", "cap-wool-grey"); avail != 6 {
		t.Fatalf("grey pool availability should stay 6, got %d", avail)
	}

	// committing the variant hold consumes variant stock only
	if _, err := svc.Commit(res.ID, "order-1"); err != nil {
		t.Fatal(err)
	}
	if got := variantStock(t, db, "cap-wool-navy"); got != 0 {
		t.Fatalf("want navy stock 0, got %d", got)
	}
	if got := productStock(t, db, "cap-wool"); got != 10 {
		t.Fatalf("base stock must be untouched, got %d", got)
	}
}
