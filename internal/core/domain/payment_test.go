package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// "1 cup coffee" example invoice from the bolt11 specification.
const testPaymentRequest = "lnbc2500u1pvjluezpp5qqqsyqcyq5rqwzqfqqqsyqcyq5rqwzqfqqqsyqcyq5rqwzqfqypqdq5xysxxatsyp3k7enxv4jsxqzpuaztrnwngzn3kdzw5hydlzf03qdgm2hdq27cqv3agm2awhz5se903vruatfhq77w3ls4evs3ch9zw97j25emudupq63nyw24cg27h2rspfj9srp"

func TestParsePaymentRequest(t *testing.T) {
	details, err := ParsePaymentRequest(testPaymentRequest)
	require.NoError(t, err)
	require.Equal(t, testPaymentRequest, details.PaymentRequest)
	require.Equal(t, uint64(250000), details.AmountSat)
	require.Equal(t, "1 cup coffee", details.Description)
	require.Equal(t, int64(60), details.ExpirySeconds)
	require.NotEmpty(t, details.Destination)
	require.NotEmpty(t, details.PaymentHash)
}

func TestParsePaymentRequestTrimsWhitespace(t *testing.T) {
	details, err := ParsePaymentRequest("  " + testPaymentRequest + "\n")
	require.NoError(t, err)
	require.Equal(t, testPaymentRequest, details.PaymentRequest)
}

func TestParsePaymentRequestInvalid(t *testing.T) {
	for _, invoice := range []string{"", "notaninvoice", "lnbc1qqqqq"} {
		_, err := ParsePaymentRequest(invoice)
		require.ErrorIs(t, err, ErrInvalidPaymentRequest)
	}
}
