package ports

import "github.com/torchwallet/torchd/internal/core/domain"

type RepoManager interface {
	Accounts() domain.AccountRepository
	Close()
}
