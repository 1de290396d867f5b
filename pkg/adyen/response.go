package adyen

import "encoding/json"

// RawPayload is an opaque JSON fragment passed through from the gateway
// (action objects, additionalData maps, payment details). The reconciler
// never interprets it beyond presence checks; the vault and the frontend do.
type RawPayload = json.RawMessage

// PaymentsResponse is the raw result of one /payments or /payments/details
// call as handed over by the gateway integration. Every field except
// ResultCode is optional; a missing field means "not applicable", not empty.
type PaymentsResponse struct {
	ResultCode     ResultCode `json:"resultCode,omitempty"`
	Action         RawPayload `json:"action,omitempty"`
	AdditionalData RawPayload `json:"additionalData,omitempty"`
	PSPReference   string     `json:"pspReference,omitempty"`
	Details        RawPayload `json:"details,omitempty"`
	DonationToken  string     `json:"donationToken,omitempty"`
}

// Empty reports whether the response carries no data at all. The gateway
// integration hands over a zero response when the call never reached Adyen.
func (r *PaymentsResponse) Empty() bool {
	return r == nil || (r.ResultCode == "" &&
		len(r.Action) == 0 &&
		len(r.AdditionalData) == 0 &&
		r.PSPReference == "" &&
		len(r.Details) == 0 &&
		r.DonationToken == "")
}

// Response is the normalized descriptor returned by Classify. IsFinal tells
// the checkout flow whether another shopper-facing step is expected.
type Response struct {
	IsFinal        bool       `json:"isFinal"`
	ResultCode     ResultCode `json:"resultCode"`
	Action         RawPayload `json:"action,omitempty"`
	AdditionalData RawPayload `json:"additionalData,omitempty"`
}
