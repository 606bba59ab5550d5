package services

import (
	"github.com/google/uuid"

	"vendora/internal/domain"
	"vendora/internal/repos"
)

type Contact struct {
	Name  string
	Email string
}

type OrderService struct {
	Res    *ReservationService
	Orders *repos.OrderRepo
}

func NewOrderService(res *ReservationService, orders *repos.OrderRepo) *OrderService {
	return &OrderService{Res: res, Orders: orders}
}

// Place converts a hold into an order. The order row is written first, then
// the reservation commit consumes the stock; a failed commit leaves the row
// behind as FAILED so the attempt stays visible.
func (s *OrderService) Place(reservationID, userID, sessionID string, contact Contact) (string, error) {
	res, err := s.Res.Get(reservationID)
	if err != nil {
		return "", err
	}
	// only the holder that created the hold may spend it
	if (res.UserID != "" && res.UserID != userID) || (res.UserID == "" && res.SessionID != sessionID) {
		return "", domain.ErrReservationNotFound
	}

	o := domain.Order{
		ID:            uuid.NewString(),
		ReservationID: res.ID,
		ProductID:     res.ProductID,
		VariantID:     res.VariantID,
		Quantity:      res.Quantity,
		UserID:        res.UserID,
		SessionID:     res.SessionID,
		CustomerName:  contact.Name,
		CustomerEmail: contact.Email,
		Status:        "PLACED",
		CreatedAt:     domain.NowUTC(),
	}
	if err := s.Orders.Create(&o); err != nil {
		return "", err
	}
	if _, err := s.Res.Commit(res.ID, o.ID); err != nil {
		_ = s.Orders.UpdateStatus(o.ID, "FAILED")
		return "", err
	}
	return o.ID, nil
}
