package service

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/merchantloop/adyen-reconciler/internal/models"
	"github.com/merchantloop/adyen-reconciler/pkg/adyen"
)

// additionalData keys carrying stored-payment-method details.
const (
	dataRecurringReference = "recurring.recurringDetailReference"
	dataShopperReference   = "recurring.shopperReference"
	dataPaymentMethod      = "paymentMethod"
	dataCardSummary        = "cardSummary"
	dataExpiryDate         = "expiryDate"
)

// TokenStore persists vaulted payment-method tokens.
type TokenStore interface {
	SaveToken(token *models.PaymentToken) error
}

// VaultService extracts recurring/stored-payment-method details from gateway
// responses and persists them as payment tokens. All failures are logged and
// swallowed here; vaulting never blocks payment reconciliation.
type VaultService struct {
	tokens TokenStore
}

// NewVaultService constructs a VaultService.
func NewVaultService(tokens TokenStore) *VaultService {
	return &VaultService{tokens: tokens}
}

// CaptureRecurringDetails reads the response's additionalData and, when the
// gateway issued a recurring detail reference, stores a payment token and
// mirrors the reference into the payment's metadata.
func (s *VaultService) CaptureRecurringDetails(payment *models.Payment, resp *adyen.PaymentsResponse) {
	if resp == nil || len(resp.AdditionalData) == 0 {
		return
	}

	var data map[string]string
	if err := json.Unmarshal(resp.AdditionalData, &data); err != nil {
		log.Warn().Err(err).Msg("additionalData is not a flat string map, skipping vault capture")
		return
	}

	ref := data[dataRecurringReference]
	if ref == "" {
		// Nothing was tokenized for this payment.
		return
	}

	token := &models.PaymentToken{
		ID:                uuid.NewString(),
		PaymentID:         payment.EntityID,
		GatewayToken:      ref,
		ShopperReference:  data[dataShopperReference],
		PaymentMethodCode: data[dataPaymentMethod],
		CreatedAt:         time.Now(),
	}
	if v := data[dataCardSummary]; v != "" {
		token.CardSummary = &v
	}
	if v := data[dataExpiryDate]; v != "" {
		token.ExpiryDate = &v
	}

	if err := s.tokens.SaveToken(token); err != nil {
		log.Error().Err(err).
			Int64("payment_id", payment.EntityID).
			Msg("Failed to save payment token")
		return
	}

	payment.SetAdditionalInformation("recurringDetailReference", ref)

	log.Info().
		Int64("payment_id", payment.EntityID).
		Str("payment_method", token.PaymentMethodCode).
		Msg("Stored payment method vaulted")
}
