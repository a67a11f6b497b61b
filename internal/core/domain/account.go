package domain

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/google/uuid"
	macaroon "gopkg.in/macaroon.v2"
)

// ConnectorKind identifies which backend adapter an account uses. It is
// resolved once, when the account is created, and stored with the account.
type ConnectorKind string

const (
	ConnectorLndRest ConnectorKind = "lnd-rest"
	ConnectorLndTor  ConnectorKind = "lnd-tor"
	ConnectorLndGrpc ConnectorKind = "lnd-grpc"
)

var onionHost = regexp.MustCompile(`(?i)\.onion`)

func (k ConnectorKind) Valid() bool {
	switch k {
	case ConnectorLndRest, ConnectorLndTor, ConnectorLndGrpc:
		return true
	default:
		return false
	}
}

// SkipsReachabilityCheck reports whether accounts of this kind are added
// without a live backend round-trip. Onion-routed backends are exempted
// because the validation round-trip is prohibitively slow.
func (k ConnectorKind) SkipsReachabilityCheck() bool {
	return k == ConnectorLndTor
}

// DetectConnectorKind picks the backend variant for an endpoint address.
// Onion-service addresses get the Tor-capable variant, everything else the
// default clear-net one.
func DetectConnectorKind(endpointUrl string) ConnectorKind {
	if onionHost.MatchString(endpointUrl) {
		return ConnectorLndTor
	}
	return ConnectorLndRest
}

// ConnectorConfig is the backend-specific credential bundle of an account.
type ConnectorConfig struct {
	Url      string `json:"url"`
	Macaroon string `json:"macaroon"`
}

// Validate checks the config is schema-complete: the endpoint must be a
// parsable URL with a host and the credential material must be a hex-encoded
// macaroon. It performs no network I/O.
func (c ConnectorConfig) Validate() error {
	if len(c.Url) == 0 {
		return fmt.Errorf("missing endpoint url")
	}
	u, err := url.Parse(c.Url)
	if err != nil {
		return fmt.Errorf("invalid endpoint url: %v", err)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid endpoint url: missing host")
	}
	if len(c.Macaroon) == 0 {
		return fmt.Errorf("missing macaroon")
	}
	macBytes, err := hex.DecodeString(c.Macaroon)
	if err != nil {
		return fmt.Errorf("macaroon is not hex encoded: %v", err)
	}
	mac := &macaroon.Macaroon{}
	if err := mac.UnmarshalBinary(macBytes); err != nil {
		return fmt.Errorf("invalid macaroon: %v", err)
	}
	return nil
}

// Account binds a named wallet to one backend connector and its credentials.
type Account struct {
	Id     string
	Name   string
	Kind   ConnectorKind
	Config ConnectorConfig
}

// NewAccount creates an account for the given endpoint and credential
// material. When kind is empty it is derived from the endpoint address.
func NewAccount(
	name string, config ConnectorConfig, kind ConnectorKind,
) (*Account, error) {
	if len(strings.TrimSpace(name)) == 0 {
		return nil, fmt.Errorf("missing account name")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if len(kind) == 0 {
		kind = DetectConnectorKind(config.Url)
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown connector kind: %s", kind)
	}
	return &Account{
		Id:     uuid.NewString(),
		Name:   name,
		Kind:   kind,
		Config: config,
	}, nil
}

type AccountRepository interface {
	Add(ctx context.Context, account Account) error
	Get(ctx context.Context, id string) (*Account, error)
	GetAll(ctx context.Context) ([]Account, error)
	Remove(ctx context.Context, id string) error
	Close()
}
