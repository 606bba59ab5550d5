package handlers

import (
	"github.com/jmoiron/sqlx"

	"vendora/internal/config"
	"vendora/internal/events"
	"vendora/internal/metrics"
	"vendora/internal/repos"
	"vendora/internal/services"
)

type Deps struct {
	ReservationHandler *ReservationHandler
	InventoryHandler   *InventoryHandler
	OrderHandler       *OrderHandler

	// exposed for main: the sweeper loop and the startup gauge seed
	Reservations *services.ReservationService
	Ledger       *repos.ReservationRepo
}

func NewDeps(db *sqlx.DB, cfg config.Config, pub events.Publisher, met *metrics.Metrics) *Deps {
	stockRepo := repos.NewStockRepo(db)
	resRepo := repos.NewReservationRepo(db)
	orderRepo := repos.NewOrderRepo(db)

	resSvc := services.NewReservationService(stockRepo, resRepo, pub, met, cfg.ReservationTTL)
	invSvc := services.NewInventoryService(resRepo)
	orderSvc := services.NewOrderService(resSvc, orderRepo)

	return &Deps{
		ReservationHandler: &ReservationHandler{Res: resSvc},
		InventoryHandler:   &InventoryHandler{Inv: invSvc},
		OrderHandler:       &OrderHandler{Order: orderSvc, Repo: orderRepo},
		Reservations:       resSvc,
		Ledger:             resRepo,
	}
}
