package repository

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/merchantloop/adyen-reconciler/internal/models"
)

// TokenRepository handles data access for vaulted payment-method tokens.
type TokenRepository struct {
	db *sqlx.DB
}

// NewTokenRepository creates a new TokenRepository.
func NewTokenRepository(db *sqlx.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// SaveToken upserts a payment token. The gateway may re-issue the same
// recurring reference on later payments; the newest details win.
func (r *TokenRepository) SaveToken(token *models.PaymentToken) error {
	const q = `
        INSERT INTO payment_tokens (
            id, payment_id, gateway_token, shopper_reference, payment_method_code,
            card_summary, expiry_date, created_at
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        ON CONFLICT (gateway_token) DO UPDATE SET
            payment_id = EXCLUDED.payment_id,
            shopper_reference = EXCLUDED.shopper_reference,
            payment_method_code = EXCLUDED.payment_method_code,
            card_summary = EXCLUDED.card_summary,
            expiry_date = EXCLUDED.expiry_date`

	if _, err := r.db.Exec(q,
		token.ID, token.PaymentID, token.GatewayToken, token.ShopperReference, token.PaymentMethodCode,
		token.CardSummary, token.ExpiryDate, token.CreatedAt,
	); err != nil {
		return fmt.Errorf("save payment token: %w", err)
	}
	return nil
}
