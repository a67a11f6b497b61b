package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"

	"github.com/torchwallet/torchd/internal/core/domain"
)

const accountDir = "accounts"

type accountRepository struct {
	store *badgerhold.Store
}

func NewAccountRepository(baseDir string, logger badger.Logger) (domain.AccountRepository, error) {
	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, accountDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open account store: %s", err)
	}
	return &accountRepository{store}, nil
}

func (r *accountRepository) Add(ctx context.Context, account domain.Account) error {
	if err := r.store.Insert(account.Id, account); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return domain.ErrAccountAlreadyExists
		}
		return err
	}
	return nil
}

func (r *accountRepository) Get(ctx context.Context, id string) (*domain.Account, error) {
	var account domain.Account
	if err := r.store.Get(id, &account); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) GetAll(ctx context.Context) ([]domain.Account, error) {
	var accounts []domain.Account
	if err := r.store.Find(&accounts, nil); err != nil {
		return nil, fmt.Errorf("failed to get all accounts: %w", err)
	}
	return accounts, nil
}

func (r *accountRepository) Remove(ctx context.Context, id string) error {
	if err := r.store.Delete(id, domain.Account{}); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return domain.ErrAccountNotFound
		}
		return err
	}
	return nil
}

func (r *accountRepository) Close() {
	// nolint:all
	r.store.Close()
}

func createDB(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger
	if isInMemory {
		opts.InMemory = true
	}

	return badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
}
