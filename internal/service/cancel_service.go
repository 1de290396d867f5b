package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/merchantloop/adyen-reconciler/internal/models"
)

// CancellationService cancels orders whose payment was refused.
type CancellationService struct {
	orders OrderStore
}

// NewCancellationService constructs a CancellationService.
func NewCancellationService(orders OrderStore) *CancellationService {
	return &CancellationService{orders: orders}
}

// Cancel moves the order to the canceled state, records an operator-visible
// comment and persists it. Already-canceled orders are left untouched.
func (s *CancellationService) Cancel(ctx context.Context, order *models.Order) error {
	if order.State == models.OrderStateCanceled {
		log.Debug().Str("order", order.IncrementID).Msg("Order already canceled, skipping")
		return nil
	}

	order.State = models.OrderStateCanceled
	order.Status = "canceled"
	order.AddStatusHistoryComment("Order canceled: the payment was refused by the gateway.")

	if err := s.orders.Save(ctx, order); err != nil {
		return err
	}

	log.Info().Str("order", order.IncrementID).Msg("Order canceled after refused payment")
	return nil
}
