package ui

import (
	"freechat/internal/chat"
	"freechat/internal/models"
	"freechat/internal/recovery"
)

// Messages produced by async network commands. Each carries enough of the
// dispatch-time context (chat id, correlation id) for Update to decide
// whether the response still applies when it arrives.

type loginDoneMsg struct {
	err error
}

type registerDoneMsg struct {
	err error
}

type verifiedMsg struct {
	ok  bool
	err error
}

type chatsLoadedMsg struct {
	chats []chat.Chat
	err   error
}

type chatCreatedMsg struct {
	created chat.Chat
	err     error
}

type historyLoadedMsg struct {
	chatID  int64
	corrID  string
	history *chat.History
	err     error
}

type messageSentMsg struct {
	chatID int64
	err    error
}

type balanceLoadedMsg struct {
	balance int
	err     error
}

type modelsLoadedMsg struct {
	models []models.Model
	err    error
}

type codeRequestedMsg struct {
	flow recovery.Flow
	err  error
}

type codeVerifiedMsg struct {
	flow recovery.Flow
	err  error
}

type topUpDoneMsg struct {
	balance int
	err     error
}
