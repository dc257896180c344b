package chat

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"freechat/internal/api"
)

// ErrNothingToSend marks a send skipped locally because the trimmed text
// was empty or no chat was selected. No request is dispatched; callers
// treat it as a quiet no-op rather than a failure.
var ErrNothingToSend = errors.New("nothing to send")

// ErrSendInFlight rejects a second concurrent send for the same chat.
var ErrSendInFlight = errors.New("send already in flight for this chat")

// Exchange fetches history and sends messages. Histories are cached per
// chat id so a slow response for one chat can never be attributed to
// another; callers additionally compare the carried chat id against the
// live selection before rendering.
type Exchange struct {
	client *api.Client
	log    *zap.Logger

	mu        sync.Mutex
	histories map[int64]*History
	sending   map[int64]bool
}

// NewExchange returns an exchange with an empty history cache.
func NewExchange(client *api.Client, log *zap.Logger) *Exchange {
	return &Exchange{
		client:    client,
		log:       log,
		histories: make(map[int64]*History),
		sending:   make(map[int64]bool),
	}
}

// FetchHistory gets the message log for chatID and replaces the cached
// entry unconditionally. Reads are idempotent; concurrent fetches are
// allowed.
func (e *Exchange) FetchHistory(ctx context.Context, chatID int64) (*History, error) {
	var out History
	err := e.client.DispatchJSON(ctx, http.MethodGet, api.EndpointChatHistory, nil, api.Params{
		URL: map[string]string{"chat_id": strconv.FormatInt(chatID, 10)},
	}, &out)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.histories[chatID] = &out
	e.mu.Unlock()
	e.log.Debug("history replaced", zap.Int64("chat_id", chatID), zap.Int("messages", len(out.Messages)))
	return &out, nil
}

// History returns the cached history for chatID, or nil.
func (e *Exchange) History(chatID int64) *History {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.histories[chatID]
}

// SendRequest describes one outgoing message. ModelName and CompanyName
// come from the model registry's current selection; SystemMessage is the
// free-form override.
type SendRequest struct {
	ChatID        int64
	Text          string
	ModelName     string
	CompanyName   string
	SystemMessage string
}

type sendBody struct {
	MessageData   string `json:"message_data"`
	SystemMessage string `json:"system_message,omitempty"`
}

// Send posts one message. Preconditions are settled locally before any
// network call: blank text or a missing chat id is a quiet no-op, a
// missing model selection is a validation error, and a second send for a
// chat whose first send has not settled is rejected. The server decides
// the token cost; after a successful send the caller refetches history and
// balance instead of computing anything.
func (e *Exchange) Send(ctx context.Context, req SendRequest) error {
	text := strings.TrimSpace(req.Text)
	if text == "" || req.ChatID == 0 {
		return ErrNothingToSend
	}
	if req.ModelName == "" || req.CompanyName == "" {
		return &api.ValidationError{Field: "model", Reason: "no model selected"}
	}

	if !e.beginSend(req.ChatID) {
		return ErrSendInFlight
	}
	defer e.endSend(req.ChatID)

	query := url.Values{}
	query.Set("model_name", req.ModelName)
	query.Set("company_name", req.CompanyName)

	_, err := e.client.Dispatch(ctx, http.MethodPost, api.EndpointChatMessage,
		sendBody{MessageData: text, SystemMessage: req.SystemMessage},
		api.Params{
			URL:   map[string]string{"chat_id": strconv.FormatInt(req.ChatID, 10)},
			Query: query,
		})
	if err != nil {
		return err
	}
	e.log.Info("message sent", zap.Int64("chat_id", req.ChatID), zap.String("model", req.ModelName))
	return nil
}

// Sending reports whether a send for chatID is outstanding.
func (e *Exchange) Sending(chatID int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sending[chatID]
}

func (e *Exchange) beginSend(chatID int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sending[chatID] {
		return false
	}
	e.sending[chatID] = true
	return true
}

func (e *Exchange) endSend(chatID int64) {
	e.mu.Lock()
	delete(e.sending, chatID)
	e.mu.Unlock()
}
