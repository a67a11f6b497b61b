package application

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/torchwallet/torchd/internal/core/domain"
	"github.com/torchwallet/torchd/internal/core/ports"
)

// Operation names accepted by the command interface.
const (
	OpGetInfo     = "getInfo"
	OpSendPayment = "sendPayment"
	OpKeysend     = "keysend"
	OpMakeInvoice = "makeInvoice"
	OpSignMessage = "signMessage"
	OpGetBalance  = "getBalance"
)

// Topics published for observable payment operations.
const (
	TopicPaymentStart   = OpSendPayment + ".start"
	TopicPaymentSuccess = OpSendPayment + ".success"
	TopicPaymentFailure = OpSendPayment + ".failure"
)

// PaymentNotification is the payload carried by sendPayment lifecycle events.
// Response is nil on the start event.
type PaymentNotification struct {
	Account  string                        `json:"account"`
	Details  *domain.PaymentRequestDetails `json:"details"`
	Response *Envelope                     `json:"response,omitempty"`
}

// Dispatcher is the single entry point for commands coming from the
// untrusted UI context. It validates the request, resolves the active
// account's connector and maps every outcome, including panics, to an
// Envelope. No failure ever crosses this boundary unwrapped.
type Dispatcher struct {
	accounts   *AccountService
	connectors *ConnectorManager
	bus        ports.EventBus
}

func NewDispatcher(
	accounts *AccountService, connectors *ConnectorManager, bus ports.EventBus,
) *Dispatcher {
	return &Dispatcher{accounts, connectors, bus}
}

func (d *Dispatcher) Dispatch(
	ctx context.Context, operation string, args map[string]any,
) (envelope Envelope) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("operation", operation).Errorf("recovered from panic: %v", r)
			envelope = errorEnvelope(fmt.Sprintf("%v", r))
		}
	}()

	switch operation {
	case OpGetInfo:
		return d.getInfo(ctx)
	case OpSendPayment:
		return d.sendPayment(ctx, args)
	case OpKeysend:
		return d.keysend(ctx, args)
	case OpMakeInvoice:
		return d.makeInvoice(ctx, args)
	case OpSignMessage:
		return d.signMessage(ctx, args)
	case OpGetBalance:
		return d.getBalance(ctx)
	default:
		return errorEnvelope(fmt.Sprintf("unknown operation: %s", operation))
	}
}

// resolve finds the active account's connector. It never reaches a backend.
func (d *Dispatcher) resolve(ctx context.Context) (*domain.Account, ports.Connector, error) {
	account, err := d.accounts.ActiveAccount()
	if err != nil {
		return nil, nil, err
	}
	connector, err := d.connectors.GetConnector(*account)
	if err != nil {
		return nil, nil, err
	}
	return account, connector, nil
}

func (d *Dispatcher) getInfo(ctx context.Context) Envelope {
	_, connector, err := d.resolve(ctx)
	if err != nil {
		return errorEnvelope(err.Error())
	}
	info, err := connector.GetInfo(ctx)
	if err != nil {
		return errorEnvelope(err.Error())
	}
	return dataEnvelope(info)
}

// sendPayment validates and parses the payment request before anything else:
// a malformed request is terminal and emits no lifecycle events at all. Once
// the request is known to be payable the start event fires, then exactly one
// of success or failure after the backend call resolves.
func (d *Dispatcher) sendPayment(ctx context.Context, args map[string]any) Envelope {
	paymentRequest, ok := stringArg(args, "paymentRequest")
	if !ok {
		return errorEnvelope("paymentRequest must be a string")
	}

	details, err := domain.ParsePaymentRequest(paymentRequest)
	if err != nil {
		return errorEnvelope(err.Error())
	}

	account, connector, err := d.resolve(ctx)
	if err != nil {
		return errorEnvelope(err.Error())
	}

	d.bus.Publish(TopicPaymentStart, PaymentNotification{
		Account: account.Id,
		Details: details,
	})

	// once start fired, exactly one terminal event must follow, so a
	// panicking connector is contained here instead of unwinding past the
	// publish below
	result, payErr := func() (result *ports.PaymentResult, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.WithField("operation", OpSendPayment).Errorf("recovered from panic: %v", r)
				err = fmt.Errorf("%v", r)
			}
		}()
		return connector.SendPayment(ctx, details.PaymentRequest)
	}()

	var envelope Envelope
	if payErr != nil {
		envelope = errorEnvelope(payErr.Error())
	} else {
		envelope = dataEnvelope(result)
	}

	topic := TopicPaymentSuccess
	if envelope.Failed() {
		topic = TopicPaymentFailure
	}
	d.bus.Publish(topic, PaymentNotification{
		Account:  account.Id,
		Details:  details,
		Response: &envelope,
	})

	return envelope
}

func (d *Dispatcher) keysend(ctx context.Context, args map[string]any) Envelope {
	destination, ok := stringArg(args, "destination")
	if !ok {
		return errorEnvelope("destination must be a string")
	}
	amountSat, ok := amountArg(args, "amount")
	if !ok {
		return errorEnvelope("amount must be a positive number")
	}

	_, connector, err := d.resolve(ctx)
	if err != nil {
		return errorEnvelope(err.Error())
	}
	result, err := connector.Keysend(ctx, destination, amountSat)
	if err != nil {
		return errorEnvelope(err.Error())
	}
	return dataEnvelope(result)
}

func (d *Dispatcher) makeInvoice(ctx context.Context, args map[string]any) Envelope {
	amountSat, ok := amountArg(args, "amount")
	if !ok {
		return errorEnvelope("amount must be a positive number")
	}
	memo, _ := stringArg(args, "memo")

	_, connector, err := d.resolve(ctx)
	if err != nil {
		return errorEnvelope(err.Error())
	}
	invoice, err := connector.MakeInvoice(ctx, amountSat, memo)
	if err != nil {
		return errorEnvelope(err.Error())
	}
	return dataEnvelope(invoice)
}

func (d *Dispatcher) signMessage(ctx context.Context, args map[string]any) Envelope {
	message, ok := stringArg(args, "message")
	if !ok {
		return errorEnvelope("message must be a string")
	}

	_, connector, err := d.resolve(ctx)
	if err != nil {
		return errorEnvelope(err.Error())
	}
	signature, err := connector.SignMessage(ctx, message)
	if err != nil {
		return errorEnvelope(err.Error())
	}
	return dataEnvelope(map[string]string{"signature": signature})
}

func (d *Dispatcher) getBalance(ctx context.Context) Envelope {
	_, connector, err := d.resolve(ctx)
	if err != nil {
		return errorEnvelope(err.Error())
	}
	balance, err := connector.GetBalance(ctx)
	if err != nil {
		return errorEnvelope(err.Error())
	}
	return dataEnvelope(map[string]uint64{"balanceSat": balance})
}

func stringArg(args map[string]any, key string) (string, bool) {
	value, ok := args[key].(string)
	if !ok || len(value) == 0 {
		return "", false
	}
	return value, true
}

// amountArg accepts any numeric JSON representation of a positive amount.
func amountArg(args map[string]any, key string) (uint64, bool) {
	switch value := args[key].(type) {
	case float64:
		if value <= 0 || value != float64(uint64(value)) {
			return 0, false
		}
		return uint64(value), true
	case int:
		if value <= 0 {
			return 0, false
		}
		return uint64(value), true
	case uint64:
		if value == 0 {
			return 0, false
		}
		return value, true
	default:
		return 0, false
	}
}
