package application

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/torchwallet/torchd/internal/core/domain"
	"github.com/torchwallet/torchd/internal/core/ports"
)

// AccountService is the account registry. It keeps the configured accounts
// and the single active-account pointer in memory, persisting changes through
// the account repository. Exactly one account is active at a time; selecting
// a new one atomically swaps the previous pointer.
type AccountService struct {
	mtx      sync.RWMutex
	accounts map[string]domain.Account
	activeId string

	repo         domain.AccountRepository
	newConnector ports.ConnectorFactory
}

func NewAccountService(
	repo domain.AccountRepository, factory ports.ConnectorFactory,
) (*AccountService, error) {
	accounts := make(map[string]domain.Account)
	stored, err := repo.GetAll(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %v", err)
	}
	for _, account := range stored {
		accounts[account.Id] = account
	}

	return &AccountService{
		accounts:     accounts,
		repo:         repo,
		newConnector: factory,
	}, nil
}

// CreateAccount validates the endpoint and credential material, picks the
// connector variant when none is given, and stores the account. Clear-net
// kinds get a live reachability check first; onion-routed kinds are added
// optimistically because booting the anonymity circuit makes the round-trip
// prohibitively slow, so failures surface on first real use.
func (s *AccountService) CreateAccount(
	ctx context.Context, name string, config domain.ConnectorConfig, kind domain.ConnectorKind,
) (*domain.Account, error) {
	account, err := domain.NewAccount(name, config, kind)
	if err != nil {
		return nil, err
	}

	if !account.Kind.SkipsReachabilityCheck() {
		if err := s.checkReachable(ctx, *account); err != nil {
			return nil, err
		}
	} else {
		log.WithField("account", account.Name).Debug("skipping reachability check")
	}

	if err := s.Add(ctx, *account); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *AccountService) checkReachable(ctx context.Context, account domain.Account) error {
	conn, err := s.newConnector(account)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.GetInfo(ctx); err != nil {
		return fmt.Errorf("backend validation failed: %v", err)
	}
	return nil
}

func (s *AccountService) Add(ctx context.Context, account domain.Account) error {
	if err := account.Config.Validate(); err != nil {
		return err
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.accounts[account.Id]; ok {
		return domain.ErrAccountAlreadyExists
	}
	if err := s.repo.Add(ctx, account); err != nil {
		return err
	}
	s.accounts[account.Id] = account

	log.WithFields(log.Fields{
		"account": account.Name,
		"kind":    account.Kind,
	}).Info("account added")
	return nil
}

func (s *AccountService) Remove(ctx context.Context, id string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.accounts[id]; !ok {
		return domain.ErrAccountNotFound
	}
	if err := s.repo.Remove(ctx, id); err != nil {
		return err
	}
	delete(s.accounts, id)
	if s.activeId == id {
		s.activeId = ""
	}
	return nil
}

// SetActive atomically swaps the active-account pointer. Concurrent readers
// never observe an intermediate state with zero or two active accounts.
func (s *AccountService) SetActive(id string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.accounts[id]; !ok {
		return domain.ErrAccountNotFound
	}
	s.activeId = id
	return nil
}

func (s *AccountService) ActiveAccount() (*domain.Account, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if len(s.activeId) == 0 {
		return nil, domain.ErrNoActiveAccount
	}
	account, ok := s.accounts[s.activeId]
	if !ok {
		return nil, domain.ErrNoActiveAccount
	}
	return &account, nil
}

func (s *AccountService) Accounts() []domain.Account {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	list := make([]domain.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		list = append(list, account)
	}
	return list
}
