package inmemorydb

import (
	"context"
	"sync"

	"github.com/torchwallet/torchd/internal/core/domain"
)

type accountRepository struct {
	mtx      sync.RWMutex
	accounts map[string]domain.Account
}

// NewAccountRepository returns a volatile account store, handy for tests and
// throwaway setups.
func NewAccountRepository() domain.AccountRepository {
	return &accountRepository{accounts: make(map[string]domain.Account)}
}

func (r *accountRepository) Add(ctx context.Context, account domain.Account) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if _, ok := r.accounts[account.Id]; ok {
		return domain.ErrAccountAlreadyExists
	}
	r.accounts[account.Id] = account
	return nil
}

func (r *accountRepository) Get(ctx context.Context, id string) (*domain.Account, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	account, ok := r.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return &account, nil
}

func (r *accountRepository) GetAll(ctx context.Context) ([]domain.Account, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	accounts := make([]domain.Account, 0, len(r.accounts))
	for _, account := range r.accounts {
		accounts = append(accounts, account)
	}
	return accounts, nil
}

func (r *accountRepository) Remove(ctx context.Context, id string) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if _, ok := r.accounts[id]; !ok {
		return domain.ErrAccountNotFound
	}
	delete(r.accounts, id)
	return nil
}

func (r *accountRepository) Close() {}
