package chat

import (
	"context"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"freechat/internal/api"
)

// Directory lists, creates, and selects chats. At most one chat is current;
// an empty list always means no selection.
type Directory struct {
	client *api.Client
	log    *zap.Logger

	mu      sync.Mutex
	chats   []Chat
	current int64 // 0 = unset
}

// NewDirectory returns an empty directory.
func NewDirectory(client *api.Client, log *zap.Logger) *Directory {
	return &Directory{client: client, log: log}
}

type chatList struct {
	Items []Chat `json:"items"`
}

// List refetches all chats for the session and replaces the prior list
// wholesale, in server order. Selection is reconciled against the new
// list: a vanished current chat is unset, and an unset selection defaults
// to the first chat when one exists.
func (d *Directory) List(ctx context.Context) ([]Chat, error) {
	var out chatList
	if err := d.client.DispatchJSON(ctx, http.MethodGet, api.EndpointChats, nil, api.Params{}, &out); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.chats = out.Items
	if d.current != 0 && !d.containsLocked(d.current) {
		d.current = 0
	}
	if d.current == 0 && len(d.chats) > 0 {
		d.current = d.chats[0].ChatID
	}
	d.log.Debug("chat list replaced", zap.Int("count", len(d.chats)), zap.Int64("current", d.current))
	return d.chats, nil
}

type createChatRequest struct {
	Language string `json:"language"`
}

// Create posts a new chat, appends the server's reply to the list, and
// makes it current.
func (d *Directory) Create(ctx context.Context, language string) (Chat, error) {
	var out Chat
	err := d.client.DispatchJSON(ctx, http.MethodPost, api.EndpointChats,
		createChatRequest{Language: language}, api.Params{}, &out)
	if err != nil {
		return Chat{}, err
	}

	d.mu.Lock()
	d.chats = append(d.chats, out)
	d.current = out.ChatID
	d.mu.Unlock()
	d.log.Info("chat created", zap.Int64("chat_id", out.ChatID), zap.String("language", language))
	return out, nil
}

// Select marks a chat as current. Fetching its history is the caller's
// next step, kept separate so the two concerns stay independently
// testable. Selecting an id the directory has never seen is permitted; the
// subsequent history fetch simply fails.
func (d *Directory) Select(chatID int64) {
	d.mu.Lock()
	d.current = chatID
	d.mu.Unlock()
}

// Current returns the selected chat id, or 0 when nothing is selected.
func (d *Directory) Current() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

// Chats returns the last fetched list.
func (d *Directory) Chats() []Chat {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Chat, len(d.chats))
	copy(out, d.chats)
	return out
}

func (d *Directory) containsLocked(chatID int64) bool {
	for _, c := range d.chats {
		if c.ChatID == chatID {
			return true
		}
	}
	return false
}
