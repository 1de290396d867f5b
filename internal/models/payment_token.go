package models

import "time"

// PaymentToken is a stored (vaulted) payment method captured from a gateway
// response, used for recurring and one-click payments.
type PaymentToken struct {
	ID                string    `db:"id"`
	PaymentID         int64     `db:"payment_id"`
	GatewayToken      string    `db:"gateway_token"`
	ShopperReference  string    `db:"shopper_reference"`
	PaymentMethodCode string    `db:"payment_method_code"`
	CardSummary       *string   `db:"card_summary"`
	ExpiryDate        *string   `db:"expiry_date"`
	CreatedAt         time.Time `db:"created_at"`
}
