package connectors

import (
	"fmt"

	"github.com/torchwallet/torchd/internal/core/domain"
	"github.com/torchwallet/torchd/internal/core/ports"
	lndgrpc "github.com/torchwallet/torchd/internal/infrastructure/lnd-grpc"
	lndrest "github.com/torchwallet/torchd/internal/infrastructure/lnd-rest"
)

// NewFactory returns the dispatch table mapping a stored connector kind to
// its backend implementation. torProxyAddr is the SOCKS5 endpoint used for
// onion-routed backends.
func NewFactory(torProxyAddr string) ports.ConnectorFactory {
	return func(account domain.Account) (ports.Connector, error) {
		switch account.Kind {
		case domain.ConnectorLndRest:
			return lndrest.NewService(account.Config)
		case domain.ConnectorLndTor:
			return lndrest.NewTorService(account.Config, torProxyAddr)
		case domain.ConnectorLndGrpc:
			return lndgrpc.NewService(account.Config)
		default:
			return nil, fmt.Errorf("unknown connector kind: %s", account.Kind)
		}
	}
}
