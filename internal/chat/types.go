// Package chat holds the chat directory (list, create, selection) and the
// message exchange (history and sends) for the current session.
package chat

import "time"

// Chat is created only by the server; clients never mutate one except by
// full refetch.
type Chat struct {
	ChatID          int64     `json:"chat_id"`
	Language        string    `json:"language"`
	CreateTimestamp time.Time `json:"create_timestamp"`
}

// MessagePart is one text fragment of a message.
type MessagePart struct {
	MessageDataID int64  `json:"message_data_id"`
	Text          string `json:"text"`
}

// Message is a single exchange entry. Sender is "user" or "assistant".
type Message struct {
	MessageID       int64         `json:"message_id"`
	Sender          string        `json:"sender"`
	MessageData     []MessagePart `json:"message_data"`
	TotalTokens     int           `json:"total_tokens,omitempty"`
	CompanyName     string        `json:"company_name,omitempty"`
	CreateTimestamp time.Time     `json:"create_timestamp"`
}

// History is the server-ordered message log of one chat. The order is
// trusted as returned, never re-sorted client-side.
type History struct {
	ChatData Chat      `json:"chat_data"`
	Messages []Message `json:"messages"`
}

// TotalTokens sums the per-message token counts for display. The figure is
// never fed back into the token ledger; the balance is server-authoritative.
func (h *History) TotalTokens() int {
	if h == nil {
		return 0
	}
	n := 0
	for _, m := range h.Messages {
		n += m.TotalTokens
	}
	return n
}
