package lndrest

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	macaroon "gopkg.in/macaroon.v2"

	"github.com/torchwallet/torchd/internal/core/domain"
	"github.com/torchwallet/torchd/internal/core/ports"
)

func testMacaroon(t *testing.T) string {
	t.Helper()

	mac, err := macaroon.New([]byte("rootkey"), []byte("0"), "torchd", macaroon.LatestVersion)
	require.NoError(t, err)
	macBytes, err := mac.MarshalBinary()
	require.NoError(t, err)
	return hex.EncodeToString(macBytes)
}

func newTestService(t *testing.T, handler http.Handler) (ports.Connector, string) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	mac := testMacaroon(t)
	svc, err := NewService(domain.ConnectorConfig{Url: server.URL, Macaroon: mac})
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc, mac
}

func TestGetInfo(t *testing.T) {
	var gotMacaroon, gotPath string
	svc, mac := newTestService(t, http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			gotMacaroon = r.Header.Get("Grpc-Metadata-macaroon")
			gotPath = r.URL.Path
			json.NewEncoder(w).Encode(map[string]any{
				"alias":           "torch-node",
				"version":         "0.18.0-beta",
				"identity_pubkey": "02abcdef",
				"chains":          []map[string]string{{"chain": "bitcoin", "network": "mainnet"}},
			})
		},
	))

	info, err := svc.GetInfo(context.Background())
	require.NoError(t, err)
	require.Equal(t, mac, gotMacaroon)
	require.Equal(t, "/v1/getinfo", gotPath)
	require.Equal(t, "torch-node", info.Alias)
	require.Equal(t, "02abcdef", info.Pubkey)
	require.Equal(t, "0.18.0-beta", info.Version)
	require.Equal(t, "mainnet", info.Network)
}

func TestSendPayment(t *testing.T) {
	t.Run("success decodes preimage and route", func(t *testing.T) {
		preimage := []byte{0x01, 0x02, 0x03}
		svc, _ := newTestService(t, http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/v1/channels/transactions", r.URL.Path)
				require.Equal(t, http.MethodPost, r.Method)

				var req map[string]any
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				require.Equal(t, "lnbc1...", req["payment_request"])

				json.NewEncoder(w).Encode(map[string]any{
					"payment_preimage": base64.StdEncoding.EncodeToString(preimage),
					"payment_hash":     base64.StdEncoding.EncodeToString([]byte{0xaa}),
					"payment_route": map[string]string{
						"total_fees": "12",
						"total_amt":  "1012",
					},
				})
			},
		))

		result, err := svc.SendPayment(context.Background(), "lnbc1...")
		require.NoError(t, err)
		require.Equal(t, hex.EncodeToString(preimage), result.Preimage)
		require.Equal(t, "aa", result.PaymentHash)
		require.Equal(t, int64(12), result.FeeSat)
		require.Equal(t, int64(1012), result.TotalAmtSat)
	})

	t.Run("payment_error is a terminal rejection", func(t *testing.T) {
		svc, _ := newTestService(t, http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]string{
					"payment_error": "no route to destination",
				})
			},
		))

		_, err := svc.SendPayment(context.Background(), "lnbc1...")
		var backendErr *ports.BackendError
		require.ErrorAs(t, err, &backendErr)
		require.False(t, backendErr.Retryable())
		require.Contains(t, err.Error(), "no route to destination")
	})
}

func TestKeysend(t *testing.T) {
	dest := "02aabbcc"
	var req sendPaymentRequest
	svc, _ := newTestService(t, http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			json.NewEncoder(w).Encode(map[string]any{
				"payment_preimage": base64.StdEncoding.EncodeToString(req.DestCustomRecords[keysendRecordKey]),
			})
		},
	))

	_, err := svc.Keysend(context.Background(), dest, 1000)
	require.NoError(t, err)

	require.Equal(t, dest, hex.EncodeToString(req.Dest))
	require.Equal(t, int64(1000), req.Amt)

	preimage := req.DestCustomRecords[keysendRecordKey]
	require.Len(t, preimage, 32)
	hash := sha256.Sum256(preimage)
	require.Equal(t, hash[:], req.PaymentHash)
}

func TestKeysendInvalidDestination(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			t.Error("backend must not be reached")
		},
	))

	_, err := svc.Keysend(context.Background(), "not-hex", 1000)
	var backendErr *ports.BackendError
	require.ErrorAs(t, err, &backendErr)
	require.False(t, backendErr.Retryable())
}

func TestMakeInvoice(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/v1/invoices", r.URL.Path)

			var req addInvoiceRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Equal(t, int64(2500), req.Value)
			require.Equal(t, "coffee", req.Memo)

			json.NewEncoder(w).Encode(map[string]any{
				"r_hash":          base64.StdEncoding.EncodeToString([]byte{0xbe, 0xef}),
				"payment_request": "lnbc25u1...",
			})
		},
	))

	invoice, err := svc.MakeInvoice(context.Background(), 2500, "coffee")
	require.NoError(t, err)
	require.Equal(t, "lnbc25u1...", invoice.PaymentRequest)
	require.Equal(t, "beef", invoice.PaymentHash)
}

func TestSignMessage(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/v1/signmessage", r.URL.Path)

			var req signMessageRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Equal(t, "hello", string(req.Msg))

			json.NewEncoder(w).Encode(map[string]string{"signature": "zbase32sig"})
		},
	))

	signature, err := svc.SignMessage(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, "zbase32sig", signature)
}

func TestGetBalance(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/v1/balance/channels", r.URL.Path)
			json.NewEncoder(w).Encode(map[string]string{"balance": "210000"})
		},
	))

	balance, err := svc.GetBalance(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(210000), balance)
}

func TestErrorMapping(t *testing.T) {
	t.Run("http error body maps to rejection", func(t *testing.T) {
		svc, _ := newTestService(t, http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{
					"message": "permission denied",
				})
			},
		))

		_, err := svc.GetInfo(context.Background())
		var backendErr *ports.BackendError
		require.ErrorAs(t, err, &backendErr)
		require.False(t, backendErr.Retryable())
		require.Contains(t, err.Error(), "permission denied")
	})

	t.Run("unreachable backend maps to transport fault", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		mac := testMacaroon(t)
		svc, err := NewService(domain.ConnectorConfig{Url: server.URL, Macaroon: mac})
		require.NoError(t, err)
		server.Close()

		_, err = svc.GetInfo(context.Background())
		var backendErr *ports.BackendError
		require.ErrorAs(t, err, &backendErr)
		require.True(t, backendErr.Retryable())
	})
}

func TestBreakerOpensOnTransportFaults(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	mac := testMacaroon(t)
	svc, err := NewService(domain.ConnectorConfig{Url: server.URL, Macaroon: mac})
	require.NoError(t, err)
	server.Close()

	ctx := context.Background()
	for i := 0; i <= maxFailingRequests; i++ {
		_, err = svc.GetInfo(ctx)
		require.Error(t, err)
	}

	_, err = svc.GetInfo(ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "temporarily unavailable")
}

func TestNewTorServiceRequiresProxy(t *testing.T) {
	_, err := NewTorService(domain.ConnectorConfig{
		Url: "http://abc.onion", Macaroon: testMacaroon(t),
	}, "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing tor proxy")
}
