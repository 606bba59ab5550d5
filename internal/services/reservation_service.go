package services

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"vendora/internal/domain"
	"vendora/internal/events"
	applog "vendora/internal/log"
	"vendora/internal/metrics"
	"vendora/internal/repos"
)

// HoldRequest is the input for a new hold. Exactly one of UserID/SessionID
// identifies who the stock is being held for.
type HoldRequest struct {
	ProductID string
	VariantID string
	Quantity  int
	UserID    string
	SessionID string
}

type ReservationService struct {
	Stock   *repos.StockRepo
	Ledger  *repos.ReservationRepo
	Events  events.Publisher
	Metrics *metrics.Metrics
	TTL     time.Duration
}

func NewReservationService(stock *repos.StockRepo, ledger *repos.ReservationRepo, pub events.Publisher, met *metrics.Metrics, ttl time.Duration) *ReservationService {
	return &ReservationService{Stock: stock, Ledger: ledger, Events: pub, Metrics: met, TTL: ttl}
}

// Create grants a hold on one (product, variant) pool. The decision itself
// happens inside the ledger transaction; a rejected hold writes nothing.
func (s *ReservationService) Create(req HoldRequest) (domain.Reservation, error) {
	if req.ProductID == "" {
		return domain.Reservation{}, domain.ErrInvalidArgument
	}
	if req.Quantity <= 0 {
		return domain.Reservation{}, domain.ErrInvalidQuantity
	}
	if (req.UserID == "") == (req.SessionID == "") {
		return domain.Reservation{}, domain.ErrMissingHolder
	}

	// Cheap existence reads before the write transaction; the ledger
	// re-verifies both inside it.
	if _, err := s.Stock.Product(req.ProductID); err != nil {
		return domain.Reservation{}, err
	}
	if req.VariantID != "" {
		if _, err := s.Stock.Variant(req.ProductID, req.VariantID); err != nil {
			return domain.Reservation{}, err
		}
	}

	now := time.Now().UTC()
	res := domain.Reservation{
		ID:        uuid.NewString(),
		ProductID: req.ProductID,
		VariantID: req.VariantID,
		Quantity:  req.Quantity,
		UserID:    req.UserID,
		SessionID: req.SessionID,
		Status:    domain.ReservationActive,
		ExpiresAt: domain.FormatTime(now.Add(s.TTL)),
		CreatedAt: domain.FormatTime(now),
		UpdatedAt: domain.FormatTime(now),
	}
	if err := s.Ledger.Reserve(&res); err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			s.Metrics.StockConflicts.Inc()
		}
		return domain.Reservation{}, err
	}

	s.Metrics.ReservationsCreated.Inc()
	s.Metrics.ActiveHolds.Inc()
	s.publish(events.Event{
		Kind: events.KindCreated, ReservationID: res.ID, ProductID: res.ProductID,
		VariantID: res.VariantID, Quantity: res.Quantity, At: res.CreatedAt,
	})
	return res, nil
}

// Commit turns the hold into a sale under orderID. Exactly one commit can
// succeed per reservation; everything after the first reports InvalidState.
func (s *ReservationService) Commit(reservationID, orderID string) (domain.Reservation, error) {
	if reservationID == "" || orderID == "" {
		return domain.Reservation{}, domain.ErrInvalidArgument
	}
	res, err := s.Ledger.Commit(reservationID, orderID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrReservationExpired):
			s.Metrics.ReservationsExpired.Inc()
			s.Metrics.ActiveHolds.Dec()
		case errors.Is(err, domain.ErrInsufficientStock):
			s.Metrics.StockConflicts.Inc()
		}
		return res, err
	}

	s.Metrics.ReservationsCommitted.Inc()
	s.Metrics.ActiveHolds.Dec()
	s.publish(events.Event{
		Kind: events.KindCommitted, ReservationID: res.ID, ProductID: res.ProductID,
		VariantID: res.VariantID, Quantity: res.Quantity, OrderID: orderID, At: res.UpdatedAt,
	})
	return res, nil
}

// Release frees an active hold. Deliberately permissive: unknown ids and
// already-terminal rows are success, so callers can fire and forget on
// cancel/abandon paths.
func (s *ReservationService) Release(reservationID string) error {
	if reservationID == "" {
		return domain.ErrInvalidArgument
	}
	res, err := s.Ledger.Get(reservationID)
	if err != nil {
		if errors.Is(err, domain.ErrReservationNotFound) {
			return nil
		}
		return err
	}
	released, err := s.Ledger.Release(reservationID)
	if err != nil {
		return err
	}
	if released {
		s.Metrics.ReservationsReleased.Inc()
		s.Metrics.ActiveHolds.Dec()
		s.publish(events.Event{
			Kind: events.KindReleased, ReservationID: res.ID, ProductID: res.ProductID,
			VariantID: res.VariantID, Quantity: res.Quantity, At: domain.NowUTC(),
		})
	}
	return nil
}

// Cleanup expires every lapsed active hold and reports how many. Correctness
// never depends on it running: Create ignores lapsed holds and Commit rejects
// them on its own.
func (s *ReservationService) Cleanup() (int64, error) {
	n, err := s.Ledger.ExpireDue()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.Metrics.ReservationsExpired.Add(float64(n))
		s.Metrics.ActiveHolds.Sub(float64(n))
		s.publish(events.Event{Kind: events.KindSweep, Expired: int(n), At: domain.NowUTC()})
	}
	return n, nil
}

// PurgeOlderThan deletes released/expired rows untouched for the retention
// window. Committed rows stay as the audit link behind orders.
func (s *ReservationService) PurgeOlderThan(retention time.Duration) (int64, error) {
	cutoff := domain.FormatTime(time.Now().Add(-retention))
	return s.Ledger.PurgeTerminal(cutoff)
}

func (s *ReservationService) Get(reservationID string) (domain.Reservation, error) {
	return s.Ledger.Get(reservationID)
}

// publish is best effort: a broker outage must never fail the operation that
// produced the event.
func (s *ReservationService) publish(ev events.Event) {
	if err := s.Events.Publish(ev); err != nil {
		applog.Error(nil, "events.publish", err, map[string]any{"kind": ev.Kind})
	}
}
