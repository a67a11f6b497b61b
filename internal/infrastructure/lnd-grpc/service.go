package lndgrpc

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/lightningnetwork/lnd/lnrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/torchwallet/torchd/internal/core/domain"
	"github.com/torchwallet/torchd/internal/core/ports"
)

const keysendRecordKey = 5482373484

type service struct {
	client   lnrpc.LightningClient
	conn     *grpc.ClientConn
	macaroon string
}

// NewService returns a connector talking to an LND node over gRPC.
//
// Trust model: the channel is TLS-encrypted but the server certificate is not
// verified, since LND nodes ship with self-signed certs and the config carries
// no cert material. Authentication relies entirely on the macaroon; do not
// point this connector at untrusted networks where the endpoint could be
// impersonated to capture it.
func NewService(config domain.ConnectorConfig) (ports.Connector, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	host := config.Url
	if u := strings.SplitN(host, "://", 2); len(u) == 2 {
		host = u[1]
	}
	host = strings.TrimSuffix(host, "/")

	creds := credentials.NewTLS(&tls.Config{InsecureSkipVerify: true})
	conn, err := grpc.NewClient(host, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("unable to get client: %v", err)
	}

	return &service{
		client:   lnrpc.NewLightningClient(conn),
		conn:     conn,
		macaroon: config.Macaroon,
	}, nil
}

func (s *service) GetInfo(ctx context.Context) (*ports.NodeInfo, error) {
	ctx = s.getCtx(ctx)
	info, err := s.client.GetInfo(ctx, &lnrpc.GetInfoRequest{})
	if err != nil {
		return nil, mapErr(err)
	}

	network := ""
	if len(info.GetChains()) > 0 {
		network = info.GetChains()[0].GetNetwork()
	}
	return &ports.NodeInfo{
		Alias:   info.GetAlias(),
		Pubkey:  info.GetIdentityPubkey(),
		Version: info.GetVersion(),
		Network: network,
	}, nil
}

func (s *service) SendPayment(
	ctx context.Context, paymentRequest string,
) (*ports.PaymentResult, error) {
	ctx = s.getCtx(ctx)

	// validate invoice
	decodeRequest := &lnrpc.PayReqString{PayReq: paymentRequest}
	if _, err := s.client.DecodePayReq(ctx, decodeRequest); err != nil {
		return nil, mapErr(err)
	}

	sendRequest := &lnrpc.SendRequest{PaymentRequest: paymentRequest}
	return s.sendPaymentSync(ctx, sendRequest)
}

func (s *service) Keysend(
	ctx context.Context, destination string, amountSat uint64,
) (*ports.PaymentResult, error) {
	destBytes, err := hex.DecodeString(destination)
	if err != nil {
		return nil, ports.NewRejectionError("invalid destination pubkey: %v", err)
	}

	preimage := make([]byte, 32)
	if _, err := rand.Read(preimage); err != nil {
		return nil, ports.NewRejectionError("failed to generate preimage: %v", err)
	}
	paymentHash := sha256.Sum256(preimage)

	ctx = s.getCtx(ctx)
	sendRequest := &lnrpc.SendRequest{
		Dest:        destBytes,
		Amt:         int64(amountSat),
		PaymentHash: paymentHash[:],
		DestCustomRecords: map[uint64][]byte{
			keysendRecordKey: preimage,
		},
	}
	return s.sendPaymentSync(ctx, sendRequest)
}

func (s *service) sendPaymentSync(
	ctx context.Context, request *lnrpc.SendRequest,
) (*ports.PaymentResult, error) {
	response, err := s.client.SendPaymentSync(ctx, request)
	if err != nil {
		return nil, mapErr(err)
	}
	if paymentErr := response.GetPaymentError(); paymentErr != "" {
		return nil, ports.NewRejectionError("%s", paymentErr)
	}

	result := &ports.PaymentResult{
		Preimage:    hex.EncodeToString(response.GetPaymentPreimage()),
		PaymentHash: hex.EncodeToString(response.GetPaymentHash()),
	}
	if route := response.GetPaymentRoute(); route != nil {
		result.FeeSat = route.GetTotalFeesMsat() / 1000
		result.TotalAmtSat = route.GetTotalAmtMsat() / 1000
	}
	return result, nil
}

func (s *service) MakeInvoice(
	ctx context.Context, amountSat uint64, memo string,
) (*ports.Invoice, error) {
	ctx = s.getCtx(ctx)
	invoiceRequest := &lnrpc.Invoice{
		Value: int64(amountSat),
		Memo:  memo,
	}
	info, err := s.client.AddInvoice(ctx, invoiceRequest)
	if err != nil {
		return nil, mapErr(err)
	}

	return &ports.Invoice{
		PaymentRequest: info.GetPaymentRequest(),
		PaymentHash:    hex.EncodeToString(info.GetRHash()),
	}, nil
}

func (s *service) SignMessage(ctx context.Context, message string) (string, error) {
	ctx = s.getCtx(ctx)
	resp, err := s.client.SignMessage(ctx, &lnrpc.SignMessageRequest{
		Msg: []byte(message),
	})
	if err != nil {
		return "", mapErr(err)
	}
	return resp.GetSignature(), nil
}

func (s *service) GetBalance(ctx context.Context) (uint64, error) {
	ctx = s.getCtx(ctx)
	resp, err := s.client.ChannelBalance(ctx, &lnrpc.ChannelBalanceRequest{})
	if err != nil {
		return 0, mapErr(err)
	}
	return resp.GetLocalBalance().GetSat(), nil
}

func (s *service) Close() {
	// nolint:all
	s.conn.Close()
}

func (s *service) getCtx(ctx context.Context) context.Context {
	return metadata.AppendToOutgoingContext(ctx, "macaroon", s.macaroon)
}

func mapErr(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return ports.NewRejectionError("%v", err)
	}
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return ports.NewTransportError("%s", st.Message())
	default:
		return ports.NewRejectionError("%s", st.Message())
	}
}
