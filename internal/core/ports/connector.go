package ports

import (
	"context"

	"github.com/torchwallet/torchd/internal/core/domain"
)

type NodeInfo struct {
	Alias   string `json:"alias"`
	Pubkey  string `json:"pubkey"`
	Version string `json:"version"`
	Network string `json:"network"`
}

type PaymentResult struct {
	Preimage    string `json:"preimage"`
	PaymentHash string `json:"paymentHash"`
	FeeSat      int64  `json:"feeSat"`
	TotalAmtSat int64  `json:"totalAmtSat"`
}

type Invoice struct {
	PaymentRequest string `json:"paymentRequest"`
	PaymentHash    string `json:"paymentHash"`
}

// Connector is the capability set every backend adapter must satisfy. A
// variant that cannot provide a capability returns ErrUnsupported, it never
// silently no-ops. Backend failures are surfaced as *BackendError so callers
// can tell transient transport faults from terminal rejections.
type Connector interface {
	GetInfo(ctx context.Context) (*NodeInfo, error)
	SendPayment(ctx context.Context, paymentRequest string) (*PaymentResult, error)
	Keysend(ctx context.Context, destination string, amountSat uint64) (*PaymentResult, error)
	MakeInvoice(ctx context.Context, amountSat uint64, memo string) (*Invoice, error)
	SignMessage(ctx context.Context, message string) (signature string, err error)
	GetBalance(ctx context.Context) (balanceSat uint64, err error)
	Close()
}

// ConnectorFactory builds a fresh connector for an account. The concrete
// variant is picked from the account's stored kind, never re-derived.
type ConnectorFactory func(account domain.Account) (Connector, error)
