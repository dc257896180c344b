package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Every network operation is a tea.Cmd: the event loop never blocks, and
// each command resolves to exactly one typed message.

func (m appModel) loginCmd(username, password string) tea.Cmd {
	return func() tea.Msg {
		return loginDoneMsg{err: m.app.Session.Login(context.Background(), username, password)}
	}
}

func (m appModel) registerCmd(username, email, password string) tea.Cmd {
	return func() tea.Msg {
		return registerDoneMsg{err: m.app.Session.Register(context.Background(), username, email, password)}
	}
}

func (m appModel) verifyCmd() tea.Cmd {
	return func() tea.Msg {
		ok, err := m.app.Session.Verify(context.Background())
		return verifiedMsg{ok: ok, err: err}
	}
}

func (m appModel) fetchChatsCmd() tea.Cmd {
	return func() tea.Msg {
		chats, err := m.app.Directory.List(context.Background())
		return chatsLoadedMsg{chats: chats, err: err}
	}
}

func (m appModel) createChatCmd(language string) tea.Cmd {
	return func() tea.Msg {
		created, err := m.app.Directory.Create(context.Background(), language)
		return chatCreatedMsg{created: created, err: err}
	}
}

// fetchHistoryCmd tags the request with the chat id active at dispatch
// time plus a correlation id. Update discards the reply if the selection
// moved on while the request was in flight.
func (m appModel) fetchHistoryCmd(chatID int64) tea.Cmd {
	corrID := uuid.NewString()
	return func() tea.Msg {
		h, err := m.app.Exchange.FetchHistory(context.Background(), chatID)
		if err != nil {
			return historyLoadedMsg{chatID: chatID, corrID: corrID, err: err}
		}
		return historyLoadedMsg{chatID: chatID, corrID: corrID, history: h}
	}
}

func (m appModel) sendCmd(chatID int64, text string) tea.Cmd {
	model, ok := m.app.Registry.Selected()
	if !ok {
		return nil
	}
	req := chatSendRequest(chatID, text, model, m.app.Registry.SystemMessage())
	return func() tea.Msg {
		return messageSentMsg{chatID: chatID, err: m.app.Exchange.Send(context.Background(), req)}
	}
}

func (m appModel) fetchBalanceCmd() tea.Cmd {
	return func() tea.Msg {
		balance, err := m.app.Ledger.FetchBalance(context.Background())
		return balanceLoadedMsg{balance: balance, err: err}
	}
}

func (m appModel) topUpCmd(amount int) tea.Cmd {
	return func() tea.Msg {
		balance, err := m.app.Ledger.TopUp(context.Background(), amount)
		return topUpDoneMsg{balance: balance, err: err}
	}
}

func (m appModel) fetchModelsCmd() tea.Cmd {
	return func() tea.Msg {
		ms, err := m.app.Registry.Fetch(context.Background())
		return modelsLoadedMsg{models: ms, err: err}
	}
}

func (m appModel) requestCodeCmd(username string) tea.Cmd {
	flow := m.flow
	return func() tea.Msg {
		next, err := m.app.Recovery.RequestCode(context.Background(), flow, username)
		return codeRequestedMsg{flow: next, err: err}
	}
}

func (m appModel) verifyCodeCmd(code string) tea.Cmd {
	flow := m.flow
	return func() tea.Msg {
		next, err := m.app.Recovery.VerifyCode(context.Background(), flow, code)
		return codeVerifiedMsg{flow: next, err: err}
	}
}

// refreshAfterSend is the pair of follow-ups a successful send demands:
// one history fetch for the same chat and one balance fetch. The client
// never assumes the token cost of a message.
func (m appModel) refreshAfterSend(chatID int64) tea.Cmd {
	return tea.Batch(m.fetchHistoryCmd(chatID), m.fetchBalanceCmd())
}

func zapError(err error) zap.Field {
	return zap.Error(err)
}

func (m appModel) logDiscardedHistory(msg historyLoadedMsg, current int64) {
	m.app.Log.Debug("stale history response discarded",
		zap.Int64("response_chat", msg.chatID),
		zap.Int64("current_chat", current),
		zap.String("correlation_id", msg.corrID))
}
