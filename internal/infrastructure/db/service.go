package db

import (
	"fmt"

	"github.com/torchwallet/torchd/internal/core/domain"
	"github.com/torchwallet/torchd/internal/core/ports"
	badgerdb "github.com/torchwallet/torchd/internal/infrastructure/db/badger"
	inmemorydb "github.com/torchwallet/torchd/internal/infrastructure/db/inmemory"
)

const (
	badgerDb   = "badger"
	inmemoryDb = "inmemory"
)

type ServiceConfig struct {
	DbType  string
	Datadir string
}

type service struct {
	accountRepo domain.AccountRepository
}

func NewService(config ServiceConfig) (ports.RepoManager, error) {
	var (
		accountRepo domain.AccountRepository
		err         error
	)

	switch config.DbType {
	case badgerDb:
		accountRepo, err = badgerdb.NewAccountRepository(config.Datadir, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to open account repository: %w", err)
		}
	case inmemoryDb:
		accountRepo = inmemorydb.NewAccountRepository()
	default:
		return nil, fmt.Errorf("unsupported db type: %s", config.DbType)
	}

	return &service{accountRepo}, nil
}

func (s *service) Accounts() domain.AccountRepository {
	return s.accountRepo
}

func (s *service) Close() {
	s.accountRepo.Close()
}
