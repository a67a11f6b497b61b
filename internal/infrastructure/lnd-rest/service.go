package lndrest

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/net/proxy"

	"github.com/torchwallet/torchd/internal/core/domain"
	"github.com/torchwallet/torchd/internal/core/ports"
)

const (
	requestTimeout = 30 * time.Second

	// TLV record carrying the preimage of a keysend payment.
	keysendRecordKey = 5482373484

	maxFailingRequests = 10
	failingRatio       = 0.6
)

type service struct {
	baseUrl  string
	macaroon string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker
}

// NewService returns a connector talking to an LND node over its REST API.
func NewService(config domain.ConnectorConfig) (ports.Connector, error) {
	return newService(config, &http.Transport{})
}

// NewTorService returns the same REST connector dialing through a SOCKS5
// proxy, for nodes only reachable as onion services.
func NewTorService(config domain.ConnectorConfig, proxyAddr string) (ports.Connector, error) {
	if len(proxyAddr) == 0 {
		return nil, fmt.Errorf("missing tor proxy address")
	}
	dialer, err := proxy.SOCKS5("tcp", proxyAddr, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to setup tor proxy: %v", err)
	}
	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			if contextDialer, ok := dialer.(proxy.ContextDialer); ok {
				return contextDialer.DialContext(ctx, network, addr)
			}
			return dialer.Dial(network, addr)
		},
	}
	return newService(config, transport)
}

func newService(config domain.ConnectorConfig, transport *http.Transport) (ports.Connector, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: config.Url,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return int(counts.Requests) > maxFailingRequests && ratio >= failingRatio
		},
		IsSuccessful: func(err error) bool {
			// Only transport faults count towards tripping the breaker,
			// a backend that answers with a rejection is healthy.
			var backendErr *ports.BackendError
			if errors.As(err, &backendErr) {
				return !backendErr.Retryable()
			}
			return err == nil
		},
	})

	return &service{
		baseUrl:  strings.TrimSuffix(config.Url, "/"),
		macaroon: config.Macaroon,
		client:   &http.Client{Transport: transport, Timeout: requestTimeout},
		breaker:  breaker,
	}, nil
}

func (s *service) GetInfo(ctx context.Context) (*ports.NodeInfo, error) {
	resp := &getInfoResponse{}
	if err := s.call(ctx, http.MethodGet, "/v1/getinfo", nil, resp); err != nil {
		return nil, err
	}

	network := ""
	if len(resp.Chains) > 0 {
		network = resp.Chains[0].Network
	}
	return &ports.NodeInfo{
		Alias:   resp.Alias,
		Pubkey:  resp.IdentityPubkey,
		Version: resp.Version,
		Network: network,
	}, nil
}

func (s *service) SendPayment(
	ctx context.Context, paymentRequest string,
) (*ports.PaymentResult, error) {
	return s.sendPaymentSync(ctx, sendPaymentRequest{PaymentRequest: paymentRequest})
}

func (s *service) Keysend(
	ctx context.Context, destination string, amountSat uint64,
) (*ports.PaymentResult, error) {
	destBytes, err := hex.DecodeString(destination)
	if err != nil {
		return nil, ports.NewRejectionError("invalid destination pubkey: %v", err)
	}

	preimage := make([]byte, 32)
	if _, err := rand.Read(preimage); err != nil {
		return nil, ports.NewRejectionError("failed to generate preimage: %v", err)
	}
	paymentHash := sha256.Sum256(preimage)

	return s.sendPaymentSync(ctx, sendPaymentRequest{
		Dest:        destBytes,
		Amt:         int64(amountSat),
		PaymentHash: paymentHash[:],
		DestCustomRecords: map[uint64][]byte{
			keysendRecordKey: preimage,
		},
	})
}

func (s *service) sendPaymentSync(
	ctx context.Context, request sendPaymentRequest,
) (*ports.PaymentResult, error) {
	resp := &sendPaymentResponse{}
	if err := s.call(
		ctx, http.MethodPost, "/v1/channels/transactions", request, resp,
	); err != nil {
		return nil, err
	}
	if len(resp.PaymentError) > 0 {
		return nil, ports.NewRejectionError("%s", resp.PaymentError)
	}

	result := &ports.PaymentResult{
		Preimage:    hex.EncodeToString(resp.PaymentPreimage),
		PaymentHash: hex.EncodeToString(resp.PaymentHash),
	}
	if resp.PaymentRoute != nil {
		result.FeeSat = parseInt(resp.PaymentRoute.TotalFees)
		result.TotalAmtSat = parseInt(resp.PaymentRoute.TotalAmt)
	}
	return result, nil
}

func (s *service) MakeInvoice(
	ctx context.Context, amountSat uint64, memo string,
) (*ports.Invoice, error) {
	resp := &addInvoiceResponse{}
	request := addInvoiceRequest{Value: int64(amountSat), Memo: memo}
	if err := s.call(ctx, http.MethodPost, "/v1/invoices", request, resp); err != nil {
		return nil, err
	}
	return &ports.Invoice{
		PaymentRequest: resp.PaymentRequest,
		PaymentHash:    hex.EncodeToString(resp.RHash),
	}, nil
}

func (s *service) SignMessage(ctx context.Context, message string) (string, error) {
	resp := &signMessageResponse{}
	request := signMessageRequest{Msg: []byte(message)}
	if err := s.call(ctx, http.MethodPost, "/v1/signmessage", request, resp); err != nil {
		return "", err
	}
	return resp.Signature, nil
}

func (s *service) GetBalance(ctx context.Context) (uint64, error) {
	resp := &channelBalanceResponse{}
	if err := s.call(ctx, http.MethodGet, "/v1/balance/channels", nil, resp); err != nil {
		return 0, err
	}
	return uint64(parseInt(resp.Balance)), nil
}

func (s *service) Close() {
	s.client.CloseIdleConnections()
}

func (s *service) call(
	ctx context.Context, method, path string, body, out any,
) error {
	_, err := s.breaker.Execute(func() (any, error) {
		return nil, s.do(ctx, method, path, body, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ports.NewTransportError("backend temporarily unavailable: %v", err)
	}
	return err
}

func (s *service) do(
	ctx context.Context, method, path string, body, out any,
) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return ports.NewRejectionError("failed to encode request: %v", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseUrl+path, reader)
	if err != nil {
		return ports.NewRejectionError("failed to build request: %v", err)
	}
	req.Header.Set("Grpc-Metadata-macaroon", s.macaroon)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return ports.NewTransportError("failed to reach backend: %v", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return ports.NewTransportError("failed to read response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		errResp := &errorResponse{}
		// nolint:all
		json.Unmarshal(payload, errResp)
		message := errResp.Message
		if len(message) == 0 {
			message = errResp.Error
		}
		if len(message) == 0 {
			message = http.StatusText(resp.StatusCode)
		}
		return ports.NewRejectionError("%s", message)
	}

	if out != nil {
		if err := json.Unmarshal(payload, out); err != nil {
			return ports.NewRejectionError("failed to decode response: %v", err)
		}
	}
	return nil
}

func parseInt(value string) int64 {
	if len(value) == 0 {
		return 0
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
