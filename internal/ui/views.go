package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"freechat/internal/chat"
	"freechat/internal/recovery"
)

func (m appModel) View() string {
	var body string
	switch m.currentScreen() {
	case screenLogin:
		body = m.viewLogin()
	case screenRegister:
		body = m.viewRegister()
	case screenRecovery:
		body = m.viewRecovery()
	case screenChats:
		body = m.viewChats()
	}

	if o := m.currentOverlay(); o != overlayNone {
		body = lipgloss.JoinVertical(lipgloss.Left, body, m.viewOverlay(o))
	}

	if m.notice != "" {
		style := m.th.Muted
		switch m.noticeKind {
		case noticeSuccess:
			style = m.th.Success
		case noticeError:
			style = m.th.Danger
		}
		body = lipgloss.JoinVertical(lipgloss.Left, body, style.Render(m.notice))
	}
	return body
}

func (m appModel) viewLogin() string {
	var b strings.Builder
	b.WriteString(m.th.Header.Render("freechat") + "\n\n")
	b.WriteString("  " + m.loginInputs[0].View() + "\n")
	b.WriteString("  " + m.loginInputs[1].View() + "\n\n")
	b.WriteString(m.th.Muted.Render("enter: log in · ctrl+r: register · ctrl+f: forgot password · esc: quit"))
	return m.th.Panel.Render(b.String())
}

func (m appModel) viewRegister() string {
	var b strings.Builder
	b.WriteString(m.th.Header.Render("Create account") + "\n\n")
	for i := range m.regInputs {
		b.WriteString("  " + m.regInputs[i].View() + "\n")
	}
	b.WriteString("\n" + m.th.Muted.Render("enter: register · esc: back to login"))
	return m.th.Panel.Render(b.String())
}

func (m appModel) viewRecovery() string {
	var b strings.Builder
	b.WriteString(m.th.Header.Render("Password recovery") + "\n\n")
	switch m.flow.Step {
	case recovery.StepRequest:
		b.WriteString("  Enter your username to receive a reset code.\n\n")
		b.WriteString("  " + m.recInput.View() + "\n")
	case recovery.StepVerify:
		b.WriteString(fmt.Sprintf("  A code was sent for %s.\n\n", m.flow.Username))
		b.WriteString("  " + m.recInput.View() + "\n")
	case recovery.StepDone:
		b.WriteString(m.th.Success.Render("  Password reset complete.") + "\n")
		b.WriteString("  Your new password is delivered out of band.\n")
	}
	b.WriteString("\n" + m.th.Muted.Render("enter: submit · esc: cancel"))
	return m.th.Panel.Render(b.String())
}

func (m appModel) viewChats() string {
	sidebar := m.viewSidebar()
	main := m.viewConversation()
	return lipgloss.JoinHorizontal(lipgloss.Top, sidebar, main)
}

func (m appModel) viewSidebar() string {
	var b strings.Builder
	b.WriteString(m.th.Header.Render("Chats") + "\n")
	if balance, ok := m.app.Ledger.Balance(); ok {
		b.WriteString(m.th.Muted.Render(fmt.Sprintf("tokens: %d", balance)) + "\n")
	}
	b.WriteString("\n")

	chats := m.app.Directory.Chats()
	current := m.app.Directory.Current()
	if len(chats) == 0 {
		b.WriteString(m.th.Muted.Render("no chats yet\nctrl+n to create one"))
	}
	for i, c := range chats {
		line := fmt.Sprintf("#%d [%s]", c.ChatID, c.Language)
		switch {
		case c.ChatID == current:
			line = m.th.Selected.Render("> " + line)
		case m.sidebarFocus && i == m.chatIndex:
			line = m.th.Accent.Render("  " + line)
		default:
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	return m.th.Sidebar.Render(b.String())
}

func (m appModel) viewConversation() string {
	var b strings.Builder
	current := m.app.Directory.Current()

	header := "No chat selected"
	if current != 0 {
		header = fmt.Sprintf("Chat #%d", current)
		if h := m.app.Exchange.History(current); h != nil {
			header += fmt.Sprintf("  [%s]  tokens: %d", h.ChatData.Language, h.TotalTokens())
		}
		if mdl, ok := m.app.Registry.Selected(); ok {
			header += "  model: " + mdl.ModelName
		}
	}
	b.WriteString(m.th.Header.Render(header) + "\n")

	if m.loading {
		b.WriteString(m.spin.View() + " loading\n")
	}
	b.WriteString(m.historyView.View() + "\n")

	prompt := m.msgInput.View()
	if current != 0 && m.app.Exchange.Sending(current) {
		prompt = m.th.Muted.Render("sending...")
	}
	b.WriteString(prompt + "\n")
	b.WriteString(m.th.Muted.Render("enter: send · tab: chat list · ctrl+n: new · ctrl+o: model · ctrl+t: top up · ctrl+e: system msg · ctrl+l: logout"))
	return m.th.Panel.Render(b.String())
}

func (m appModel) historyContent(h *chat.History) string {
	if h == nil || len(h.Messages) == 0 {
		return m.th.Muted.Render("empty conversation")
	}
	var b strings.Builder
	for _, msg := range h.Messages {
		who := "you"
		style := m.th.UserMsg
		if msg.Sender != "user" {
			who = msg.CompanyName
			if who == "" {
				who = "assistant"
			}
			style = m.th.AssistMsg
		}
		b.WriteString(style.Render(who) + m.th.Muted.Render("  "+msg.CreateTimestamp.Format("2006-01-02 15:04")) + "\n")
		for _, part := range msg.MessageData {
			b.WriteString(part.Text + "\n")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m appModel) viewOverlay(o overlay) string {
	var b strings.Builder
	switch o {
	case overlayNewChat:
		b.WriteString(m.th.Header.Render("New chat language") + "\n")
		for i, lang := range chatLanguages {
			if i == m.langIndex {
				b.WriteString(m.th.Selected.Render("> "+lang) + "\n")
			} else {
				b.WriteString("  " + lang + "\n")
			}
		}
	case overlayModelSelect:
		b.WriteString(m.th.Header.Render("Select model") + "\n")
		list := m.app.Registry.Models()
		if len(list) == 0 {
			b.WriteString(m.th.Muted.Render("no models available"))
		}
		selected, _ := m.app.Registry.Selected()
		for i, mdl := range list {
			line := fmt.Sprintf("%s (%s)", mdl.ModelName, mdl.CompanyName)
			switch {
			case i == m.modelIndex:
				line = m.th.Selected.Render("> " + line)
			case mdl.ID == selected.ID:
				line = m.th.Accent.Render("  " + line)
			default:
				line = "  " + line
			}
			b.WriteString(line + "\n")
		}
	case overlayTopUp:
		b.WriteString(m.th.Header.Render("Top up tokens") + "\n")
		b.WriteString(m.topUpInput.View() + "\n")
	case overlaySystemMessage:
		b.WriteString(m.th.Header.Render("System message") + "\n")
		b.WriteString(m.sysMsgInput.View() + "\n")
	case overlayQuitConfirm:
		b.WriteString("Quit freechat? (y/n)")
	}
	return m.th.OverlayBox.Render(b.String())
}
