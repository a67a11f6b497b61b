package domain

import (
	"fmt"
	"strings"

	decodepay "github.com/nbd-wtf/ln-decodepay"
)

// PaymentRequestDetails is the parsed, read-only view of a bolt11 payment
// request. It is derived data and never persisted on its own.
type PaymentRequestDetails struct {
	PaymentRequest string `json:"paymentRequest"`
	Destination    string `json:"destination"`
	PaymentHash    string `json:"paymentHash"`
	AmountSat      uint64 `json:"amountSat"`
	Description    string `json:"description"`
	CreatedAt      int64  `json:"createdAt"`
	ExpirySeconds  int64  `json:"expirySeconds"`
}

// ParsePaymentRequest decodes a bolt11 invoice string. A failure here is
// terminal, the string cannot be paid by any backend.
func ParsePaymentRequest(paymentRequest string) (*PaymentRequestDetails, error) {
	invoice := strings.TrimSpace(paymentRequest)
	bolt11, err := decodepay.Decodepay(invoice)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPaymentRequest, err)
	}

	return &PaymentRequestDetails{
		PaymentRequest: invoice,
		Destination:    bolt11.Payee,
		PaymentHash:    bolt11.PaymentHash,
		AmountSat:      uint64(bolt11.MSatoshi / 1000),
		Description:    bolt11.Description,
		CreatedAt:      int64(bolt11.CreatedAt),
		ExpirySeconds:  int64(bolt11.Expiry),
	}, nil
}
