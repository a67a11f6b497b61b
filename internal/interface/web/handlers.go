package web

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/torchwallet/torchd/internal/core/application"
	"github.com/torchwallet/torchd/internal/core/domain"
	"github.com/torchwallet/torchd/internal/core/ports"
)

type commandRequest struct {
	Operation string         `json:"operation" binding:"required"`
	Args      map[string]any `json:"args"`
}

type createAccountRequest struct {
	Name     string `json:"name" binding:"required"`
	Url      string `json:"url" binding:"required"`
	Macaroon string `json:"macaroon" binding:"required"`
	Kind     string `json:"kind"`
}

type accountResponse struct {
	Id   string `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`
	Url  string `json:"url"`
}

func toAccountResponse(account domain.Account) accountResponse {
	return accountResponse{
		Id:   account.Id,
		Name: account.Name,
		Kind: string(account.Kind),
		Url:  account.Config.Url,
	}
}

// handleCommand is the inbound command interface: a named operation plus
// arguments in, an envelope out. Dispatch never fails without an envelope so
// the response status is always 200.
func (s *Service) handleCommand(c *gin.Context) {
	req := commandRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	envelope := s.dispatcher.Dispatch(c.Request.Context(), req.Operation, req.Args)
	c.JSON(http.StatusOK, envelope)
}

func (s *Service) handleCreateAccount(c *gin.Context) {
	req := createAccountRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	config := domain.ConnectorConfig{Url: req.Url, Macaroon: req.Macaroon}
	account, err := s.accounts.CreateAccount(
		c.Request.Context(), req.Name, config, domain.ConnectorKind(req.Kind),
	)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toAccountResponse(*account))
}

func (s *Service) handleListAccounts(c *gin.Context) {
	accounts := s.accounts.Accounts()
	list := make([]accountResponse, 0, len(accounts))
	for _, account := range accounts {
		list = append(list, toAccountResponse(account))
	}
	c.JSON(http.StatusOK, gin.H{"accounts": list})
}

func (s *Service) handleRemoveAccount(c *gin.Context) {
	id := c.Param("id")
	if err := s.accounts.Remove(c.Request.Context(), id); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrAccountNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	s.connectors.Invalidate(id)
	c.Status(http.StatusNoContent)
}

func (s *Service) handleSelectAccount(c *gin.Context) {
	id := c.Param("id")
	if err := s.accounts.SetActive(id); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrAccountNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// handleEvents streams payment lifecycle events to the client as SSE, for UI
// toasts and the like. Subscribers only see events published while connected.
func (s *Service) handleEvents(c *gin.Context) {
	events := make(chan ports.Event, 16)
	handler := func(event ports.Event) {
		select {
		case events <- event:
		default:
			// slow client, drop the event
		}
	}

	topics := []string{
		application.TopicPaymentStart,
		application.TopicPaymentSuccess,
		application.TopicPaymentFailure,
	}
	unsubscribes := make([]func(), 0, len(topics))
	for _, topic := range topics {
		unsubscribes = append(unsubscribes, s.bus.Subscribe(topic, handler))
	}
	defer func() {
		for _, unsubscribe := range unsubscribes {
			unsubscribe()
		}
	}()

	c.Stream(func(w io.Writer) bool {
		select {
		case event := <-events:
			c.SSEvent(event.Topic, event.Payload)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
