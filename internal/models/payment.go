package models

import "encoding/json"

// Payment is the payment leg of an order. It accumulates keyed
// additional-information entries from gateway responses and carries the
// transaction identifiers assigned on authorisation.
//
// CcTransID, LastTransID and TransactionID are kept as three separate fields
// because downstream consumers (refunds, captures, exports) read them
// independently; on authorisation all three receive the same pspReference.
type Payment struct {
	EntityID      int64  `db:"entity_id"`
	OrderID       int64  `db:"order_id"`
	Method        string `db:"method"`
	CcTransID     string `db:"cc_trans_id"`
	LastTransID   string `db:"last_trans_id"`
	TransactionID string `db:"transaction_id"`

	additional map[string]any
}

// SetAdditionalInformation stores a keyed metadata entry on the payment.
// Empty values are ignored so that a later response missing a field never
// clears what an earlier response stored.
func (p *Payment) SetAdditionalInformation(key string, value any) {
	if key == "" || isEmptyValue(value) {
		return
	}
	if p.additional == nil {
		p.additional = make(map[string]any)
	}
	p.additional[key] = value
}

// AdditionalInformation returns the stored entry for key, or nil.
func (p *Payment) AdditionalInformation(key string) any {
	return p.additional[key]
}

// HydrateAdditionalInformation replaces the metadata map wholesale. Only the
// persistence layer uses this, when loading a payment.
func (p *Payment) HydrateAdditionalInformation(info map[string]any) {
	p.additional = info
}

// AdditionalInformationMap returns a copy of all stored entries for
// serialization by the persistence layer.
func (p *Payment) AdditionalInformationMap() map[string]any {
	out := make(map[string]any, len(p.additional))
	for k, v := range p.additional {
		out[k] = v
	}
	return out
}

func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []byte:
		return len(t) == 0
	case json.RawMessage:
		return len(t) == 0
	}
	return false
}
