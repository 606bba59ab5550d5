package services

import (
	"vendora/internal/domain"
	"vendora/internal/repos"
)

type InventoryService struct {
	Ledger *repos.ReservationRepo
}

func NewInventoryService(ledger *repos.ReservationRepo) *InventoryService {
	return &InventoryService{Ledger: ledger}
}

// CheckAvailability reports what a buyer could reserve right now: stock minus
// active unexpired holds, bucketed into IN_STOCK / LOW_STOCK / OUT_OF_STOCK.
func (s *InventoryService) CheckAvailability(productID, variantID string) (domain.Availability, error) {
	available, stock, err := s.Ledger.Available(productID, variantID)
	if err != nil {
		return domain.Availability{}, err
	}
	if available < 0 {
		// stock corrected downward below what is already held
		available = 0
	}

	status := "OUT_OF_STOCK"
	switch {
	case available >= 5:
		status = "IN_STOCK"
	case available > 0:
		status = "LOW_STOCK"
	}
	return domain.Availability{Status: status, Available: available, Stock: stock}, nil
}
