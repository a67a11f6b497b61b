package application

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/torchwallet/torchd/internal/core/domain"
	"github.com/torchwallet/torchd/internal/core/ports"
)

type cachedConnector struct {
	config    domain.ConnectorConfig
	connector ports.Connector
}

// ConnectorManager lazily constructs connectors and caches them per account
// id. A cached instance is reused until the account's config changes, at
// which point a fresh one replaces it and the old one is closed once any
// in-flight calls had a chance to complete. Read and replace happen under a
// single lock so two concurrent dispatches cannot thrash each other's
// instance, last writer wins.
type ConnectorManager struct {
	mtx   sync.Mutex
	cache map[string]cachedConnector
	build ports.ConnectorFactory
}

func NewConnectorManager(factory ports.ConnectorFactory) *ConnectorManager {
	return &ConnectorManager{
		cache: make(map[string]cachedConnector),
		build: factory,
	}
}

func (m *ConnectorManager) GetConnector(account domain.Account) (ports.Connector, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if entry, ok := m.cache[account.Id]; ok {
		if entry.config == account.Config {
			return entry.connector, nil
		}
		log.WithField("account", account.Name).Debug("connector config changed, rebuilding")
		go entry.connector.Close()
	}

	connector, err := m.build(account)
	if err != nil {
		return nil, err
	}
	m.cache[account.Id] = cachedConnector{config: account.Config, connector: connector}
	return connector, nil
}

// Invalidate drops the cached connector for an account, closing it in the
// background. Callers holding a reference to the dropped instance may still
// finish their in-flight calls.
func (m *ConnectorManager) Invalidate(accountId string) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if entry, ok := m.cache[accountId]; ok {
		delete(m.cache, accountId)
		go entry.connector.Close()
	}
}

func (m *ConnectorManager) Close() {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	for id, entry := range m.cache {
		entry.connector.Close()
		delete(m.cache, id)
	}
}
