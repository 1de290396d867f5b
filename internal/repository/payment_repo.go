package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/merchantloop/adyen-reconciler/internal/models"
	"github.com/merchantloop/adyen-reconciler/internal/utils"
)

// PaymentRepository handles data access for order payments.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// GetByOrderID loads the payment leg of an order, including its keyed
// additional-information entries.
func (r *PaymentRepository) GetByOrderID(ctx context.Context, orderID int64) (*models.Payment, error) {
	const q = `
        SELECT entity_id, order_id, method, cc_trans_id, last_trans_id, transaction_id, additional_information
        FROM order_payments
        WHERE order_id = $1`

	var row struct {
		models.Payment
		AdditionalInformation []byte `db:"additional_information"`
	}
	if err := r.db.GetContext(ctx, &row, q, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("get payment for order %d: %w", orderID, err)
	}

	payment := row.Payment
	if len(row.AdditionalInformation) > 0 {
		var info map[string]any
		if err := json.Unmarshal(row.AdditionalInformation, &info); err != nil {
			return nil, fmt.Errorf("decode additional information for order %d: %w", orderID, err)
		}
		payment.HydrateAdditionalInformation(info)
	}
	return &payment, nil
}

// Update writes the payment's transaction identifiers and metadata back to
// the host platform's payment table.
func (r *PaymentRepository) Update(ctx context.Context, payment *models.Payment) error {
	info, err := json.Marshal(payment.AdditionalInformationMap())
	if err != nil {
		return fmt.Errorf("encode additional information: %w", err)
	}

	const q = `
        UPDATE order_payments SET
            cc_trans_id = $2,
            last_trans_id = $3,
            transaction_id = $4,
            additional_information = $5,
            updated_at = NOW()
        WHERE entity_id = $1`

	if _, err := r.db.ExecContext(ctx, q, payment.EntityID, payment.CcTransID, payment.LastTransID, payment.TransactionID, info); err != nil {
		return fmt.Errorf("update payment %d: %w", payment.EntityID, err)
	}
	return nil
}
