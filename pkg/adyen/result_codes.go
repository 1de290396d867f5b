package adyen

// ResultCode is the gateway's verdict for a single payment step. The set of
// known codes is closed, but the gateway may introduce new ones at any time,
// so every consumer must tolerate arbitrary values.
type ResultCode string

const (
	ResultAuthorised       ResultCode = "Authorised"
	ResultRefused          ResultCode = "Refused"
	ResultRedirectShopper  ResultCode = "RedirectShopper"
	ResultIdentifyShopper  ResultCode = "IdentifyShopper"
	ResultChallengeShopper ResultCode = "ChallengeShopper"
	ResultReceived         ResultCode = "Received"
	ResultPending          ResultCode = "Pending"
	ResultPresentToShopper ResultCode = "PresentToShopper"
	ResultError            ResultCode = "Error"
	ResultCancelled        ResultCode = "Cancelled"
	ResultPosSuccess       ResultCode = "PosSuccess"
)

// Classify maps a gateway result code to the normalized response descriptor
// consumed by the checkout flow. It is total: codes outside the known table
// (including Cancelled, which the gateway reports but the flow never acts on)
// degrade to a final Error descriptor. Classify never mutates its inputs and
// performs no I/O.
func Classify(resultCode ResultCode, action, additionalData RawPayload) Response {
	switch resultCode {
	case ResultAuthorised, ResultRefused, ResultError, ResultPosSuccess:
		return Response{
			IsFinal:    true,
			ResultCode: resultCode,
		}

	case ResultRedirectShopper, ResultIdentifyShopper, ResultChallengeShopper, ResultPending:
		// Shopper interaction still required; the action payload tells the
		// frontend what to render next.
		return Response{
			IsFinal:    false,
			ResultCode: resultCode,
			Action:     action,
		}

	case ResultPresentToShopper:
		// One-time display (voucher, QR code). Final for this step, but the
		// action still carries what to show.
		return Response{
			IsFinal:    true,
			ResultCode: resultCode,
			Action:     action,
		}

	case ResultReceived:
		// Asynchronous acknowledgment; additionalData carries the receipt.
		return Response{
			IsFinal:        true,
			ResultCode:     resultCode,
			AdditionalData: additionalData,
		}

	default:
		return Response{
			IsFinal:    true,
			ResultCode: ResultError,
		}
	}
}
