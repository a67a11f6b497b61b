package application

import (
	"context"
	"encoding/hex"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	macaroon "gopkg.in/macaroon.v2"

	"github.com/torchwallet/torchd/internal/core/domain"
	"github.com/torchwallet/torchd/internal/core/ports"
	inmemorydb "github.com/torchwallet/torchd/internal/infrastructure/db/inmemory"
)

// "1 cup coffee" example invoice from the bolt11 specification.
const testPaymentRequest = "lnbc2500u1pvjluezpp5qqqsyqcyq5rqwzqfqqqsyqcyq5rqwzqfqqqsyqcyq5rqwzqfqypqdq5xysxxatsyp3k7enxv4jsxqzpuaztrnwngzn3kdzw5hydlzf03qdgm2hdq27cqv3agm2awhz5se903vruatfhq77w3ls4evs3ch9zw97j25emudupq63nyw24cg27h2rspfj9srp"

func testMacaroon(t *testing.T) string {
	t.Helper()

	mac, err := macaroon.New([]byte("rootkey"), []byte("0"), "torchd", macaroon.LatestVersion)
	require.NoError(t, err)
	macBytes, err := mac.MarshalBinary()
	require.NoError(t, err)
	return hex.EncodeToString(macBytes)
}

func testConfig(t *testing.T) domain.ConnectorConfig {
	return domain.ConnectorConfig{
		Url:      "https://node.example:8080",
		Macaroon: testMacaroon(t),
	}
}

type stubConnector struct {
	mtx       sync.Mutex
	calls     int
	payErr    error
	payResult *ports.PaymentResult
	closed    bool
}

func (c *stubConnector) callCount() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.calls
}

func (c *stubConnector) record() {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.calls++
}

func (c *stubConnector) GetInfo(ctx context.Context) (*ports.NodeInfo, error) {
	c.record()
	return &ports.NodeInfo{Alias: "stub", Pubkey: "02abc", Version: "0.18.0"}, nil
}

func (c *stubConnector) SendPayment(
	ctx context.Context, paymentRequest string,
) (*ports.PaymentResult, error) {
	c.record()
	if c.payErr != nil {
		return nil, c.payErr
	}
	if c.payResult != nil {
		return c.payResult, nil
	}
	return &ports.PaymentResult{Preimage: "00ff"}, nil
}

func (c *stubConnector) Keysend(
	ctx context.Context, destination string, amountSat uint64,
) (*ports.PaymentResult, error) {
	c.record()
	return &ports.PaymentResult{Preimage: "00ff"}, nil
}

func (c *stubConnector) MakeInvoice(
	ctx context.Context, amountSat uint64, memo string,
) (*ports.Invoice, error) {
	c.record()
	return &ports.Invoice{PaymentRequest: "lnbc1..."}, nil
}

func (c *stubConnector) SignMessage(ctx context.Context, message string) (string, error) {
	c.record()
	return "sig", nil
}

func (c *stubConnector) GetBalance(ctx context.Context) (uint64, error) {
	c.record()
	return 21000, nil
}

func (c *stubConnector) Close() {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.closed = true
}

type spyBus struct {
	mtx    sync.Mutex
	events []ports.Event
}

func (b *spyBus) Publish(topic string, payload any) {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	b.events = append(b.events, ports.Event{Topic: topic, Payload: payload})
}

func (b *spyBus) Subscribe(topic string, handler ports.EventHandler) func() {
	return func() {}
}

func (b *spyBus) Close() {}

func (b *spyBus) topics() []string {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	topics := make([]string, 0, len(b.events))
	for _, event := range b.events {
		topics = append(topics, event.Topic)
	}
	return topics
}

func stubFactory(connector ports.Connector) ports.ConnectorFactory {
	return func(account domain.Account) (ports.Connector, error) {
		return connector, nil
	}
}

func newTestAccountService(
	t *testing.T, factory ports.ConnectorFactory,
) *AccountService {
	t.Helper()

	svc, err := NewAccountService(inmemorydb.NewAccountRepository(), factory)
	require.NoError(t, err)
	return svc
}

// newActiveAccount adds a well-formed account and makes it the active one.
func newActiveAccount(t *testing.T, accounts *AccountService) domain.Account {
	t.Helper()

	account, err := domain.NewAccount("test", testConfig(t), "")
	require.NoError(t, err)
	require.NoError(t, accounts.Add(context.Background(), *account))
	require.NoError(t, accounts.SetActive(account.Id))
	return *account
}
