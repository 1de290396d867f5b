package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/merchantloop/adyen-reconciler/internal/models"
	"github.com/merchantloop/adyen-reconciler/internal/utils"
	"github.com/merchantloop/adyen-reconciler/pkg/adyen"
)

// Keys under which gateway response fields are stored on the payment.
const (
	infoResultCode     = "resultCode"
	infoAction         = "action"
	infoAdditionalData = "additionalData"
	infoPSPReference   = "pspReference"
	infoDetails        = "details"
	infoDonationToken  = "donationToken"
)

// OrderStore persists order state. Save failures are critical and propagate
// out of the reconciler.
type OrderStore interface {
	Save(ctx context.Context, order *models.Order) error
}

// QuoteStore invalidates the shopper's cart once its order is paid.
// Disable is best effort; the reconciler swallows and logs its failures.
type QuoteStore interface {
	Disable(ctx context.Context, quoteID int64) error
}

// Vault extracts and stores tokenized payment-method details from a gateway
// response. Failures are handled internally and never surface here.
type Vault interface {
	CaptureRecurringDetails(payment *models.Payment, resp *adyen.PaymentsResponse)
}

// OrderCanceler cancels a refused order. Invoked only on Refused.
type OrderCanceler interface {
	Cancel(ctx context.Context, order *models.Order) error
}

// ReconcileService applies one gateway response to one payment and its
// (optional) order: it captures response fields as payment metadata, then
// performs the side effects the result code calls for.
type ReconcileService struct {
	orders   OrderStore
	quotes   QuoteStore
	vault    Vault
	canceler OrderCanceler
}

// NewReconcileService constructs a ReconcileService.
func NewReconcileService(orders OrderStore, quotes QuoteStore, vault Vault, canceler OrderCanceler) *ReconcileService {
	return &ReconcileService{
		orders:   orders,
		quotes:   quotes,
		vault:    vault,
		canceler: canceler,
	}
}

// Reconcile processes a raw gateway response for the given payment. order may
// be nil when the response arrives outside an order context.
//
// The boolean is the business outcome: true means the payment is in a valid
// continuing or successful state, false means refusal, error, or an unusable
// response. The error is non-nil only when persisting the order fails; it
// wraps utils.ErrOrderPersistence and must be surfaced by the caller as a
// system failure.
func (s *ReconcileService) Reconcile(ctx context.Context, resp *adyen.PaymentsResponse, payment *models.Payment, order *models.Order) (bool, error) {
	if resp.Empty() {
		log.Error().Msg("Empty response from gateway, cannot reconcile payment")
		return false, nil
	}

	// Capture whatever the gateway sent before branching. The setter skips
	// empty values, so a later response missing a field never clears what an
	// earlier one stored.
	payment.SetAdditionalInformation(infoResultCode, string(resp.ResultCode))
	payment.SetAdditionalInformation(infoAction, resp.Action)
	payment.SetAdditionalInformation(infoAdditionalData, resp.AdditionalData)
	payment.SetAdditionalInformation(infoPSPReference, resp.PSPReference)
	payment.SetAdditionalInformation(infoDetails, resp.Details)

	switch resp.ResultCode {
	case adyen.ResultPresentToShopper, adyen.ResultPending, adyen.ResultReceived,
		adyen.ResultIdentifyShopper, adyen.ResultChallengeShopper:
		// Intermediate or informational states; the field capture above is
		// all there is to do.
		return true, nil

	case adyen.ResultRedirectShopper:
		log.Info().
			Str("psp_reference", resp.PSPReference).
			Msg("Shopper redirected to the gateway to complete the payment")
		if order != nil {
			order.AddStatusHistoryComment(
				"Shopper was redirected to the payment gateway to complete the payment. " +
					"Incoming gateway notifications still need to be processed for this order; " +
					"if the shopper never returns, the order is cancelled automatically once " +
					"the offer-closed notification arrives.")
			if err := s.saveOrder(ctx, order); err != nil {
				return false, err
			}
		}
		return true, nil

	case adyen.ResultAuthorised:
		if resp.PSPReference != "" {
			// Platform quirk: three transaction-identifier fields, all kept
			// in sync with the gateway reference.
			payment.CcTransID = resp.PSPReference
			payment.LastTransID = resp.PSPReference
			payment.TransactionID = resp.PSPReference
		}

		s.vault.CaptureRecurringDetails(payment, resp)

		payment.SetAdditionalInformation(infoDonationToken, resp.DonationToken)

		if order != nil {
			if err := s.saveOrder(ctx, order); err != nil {
				return false, err
			}
			if err := s.quotes.Disable(ctx, order.QuoteID); err != nil {
				// Best effort: a cart left active is a cleanup problem, not
				// a payment problem.
				log.Error().Err(err).
					Int64("quote_id", order.QuoteID).
					Msg("Failed to disable quote after authorisation")
			}
		}
		return true, nil

	case adyen.ResultRefused:
		log.Info().
			Str("psp_reference", resp.PSPReference).
			Msg("The payment was refused by the gateway")
		if order != nil {
			// Move the order back to a pre-processing state so it becomes
			// eligible for cancellation.
			order.State = models.OrderStateNew
			if err := s.saveOrder(ctx, order); err != nil {
				return false, err
			}
			order.FlagForCancellation()
			if err := s.canceler.Cancel(ctx, order); err != nil {
				log.Error().Err(err).
					Str("order", order.IncrementID).
					Msg("Failed to cancel refused order")
			}
		}
		// Reconciliation completed, but the payment did not succeed.
		return false, nil

	default:
		// Error, Cancelled, and any code the gateway introduces later.
		raw, _ := json.Marshal(resp)
		log.Error().
			RawJSON("response", raw).
			Msg("Payment processing failed")
		return false, nil
	}
}

func (s *ReconcileService) saveOrder(ctx context.Context, order *models.Order) error {
	if err := s.orders.Save(ctx, order); err != nil {
		log.Error().Err(err).
			Str("order", order.IncrementID).
			Msg("Failed to persist order")
		return fmt.Errorf("%w: order %s: %v", utils.ErrOrderPersistence, order.IncrementID, err)
	}
	return nil
}
