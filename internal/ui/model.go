package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"freechat/internal/api"
	"freechat/internal/chat"
	"freechat/internal/recovery"
)

type screen int

const (
	screenLogin screen = iota
	screenRegister
	screenRecovery
	screenChats
)

func (s screen) String() string {
	switch s {
	case screenLogin:
		return "login"
	case screenRegister:
		return "register"
	case screenRecovery:
		return "recovery"
	case screenChats:
		return "chats"
	default:
		return "unknown"
	}
}

type overlay int

const (
	overlayNone overlay = iota
	overlayNewChat
	overlayModelSelect
	overlayTopUp
	overlaySystemMessage
	overlayQuitConfirm
)

func (o overlay) String() string {
	switch o {
	case overlayNone:
		return "none"
	case overlayNewChat:
		return "new_chat"
	case overlayModelSelect:
		return "model_select"
	case overlayTopUp:
		return "top_up"
	case overlaySystemMessage:
		return "system_message"
	case overlayQuitConfirm:
		return "quit_confirm"
	default:
		return "unknown"
	}
}

type noticeKind int

const (
	noticeInfo noticeKind = iota
	noticeSuccess
	noticeError
)

var chatLanguages = []string{"ru", "en", "es", "fr", "de"}

type appModel struct {
	app *App
	th  theme

	width  int
	height int

	screens  []screen
	overlays []overlay

	notice     string
	noticeKind noticeKind

	// login
	loginInputs []textinput.Model
	loginFocus  int

	// register
	regInputs []textinput.Model
	regFocus  int

	// recovery
	flow     recovery.Flow
	recInput textinput.Model
	recBusy  bool

	// chats
	chatIndex    int
	sidebarFocus bool
	msgInput     textinput.Model
	historyView  viewport.Model
	spin         spinner.Model
	loading      bool

	// overlays
	langIndex   int
	modelIndex  int
	topUpInput  textinput.Model
	sysMsgInput textinput.Model
}

// NewModel builds the initial model. A persisted token routes startup to
// the chats screen behind a verification round-trip; otherwise the login
// screen is the entry point.
func NewModel(app *App) appModel {
	username := textinput.New()
	username.Placeholder = "username"
	username.Focus()
	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword

	regUser := textinput.New()
	regUser.Placeholder = "username"
	regUser.Focus()
	regEmail := textinput.New()
	regEmail.Placeholder = "email"
	regPass := textinput.New()
	regPass.Placeholder = "password"
	regPass.EchoMode = textinput.EchoPassword

	recInput := textinput.New()
	recInput.Placeholder = "username"
	recInput.Focus()

	msgInput := textinput.New()
	msgInput.Placeholder = "Type your message..."
	msgInput.Focus()

	topUp := textinput.New()
	topUp.Placeholder = "amount"

	sysMsg := textinput.New()
	sysMsg.Placeholder = "system message override"

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	first := screenLogin
	if app.Session.Authenticated() {
		first = screenChats
	}

	return appModel{
		app:         app,
		th:          defaultTheme(),
		screens:     []screen{first},
		overlays:    []overlay{},
		loginInputs: []textinput.Model{username, password},
		regInputs:   []textinput.Model{regUser, regEmail, regPass},
		flow:        recovery.New(),
		recInput:    recInput,
		msgInput:    msgInput,
		historyView: viewport.New(80, 20),
		spin:        sp,
		topUpInput:  topUp,
		sysMsgInput: sysMsg,
		langIndex:   languageIndex(app.Config.DefaultLanguage),
	}
}

func languageIndex(lang string) int {
	for i, l := range chatLanguages {
		if l == lang {
			return i
		}
	}
	return 0
}

func (m appModel) Init() tea.Cmd {
	if m.currentScreen() == screenChats {
		m.loading = true
		return tea.Batch(m.verifyCmd(), m.spin.Tick)
	}
	return textinput.Blink
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch t := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = t.Width
		m.height = t.Height
		m.historyView.Width = maxInt(t.Width-36, 20)
		m.historyView.Height = maxInt(t.Height-8, 5)
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(t)
		return m, cmd

	case verifiedMsg:
		m.loading = false
		if t.err != nil {
			return m.handleErr(t.err)
		}
		if !t.ok {
			return m.forceLogin("Session expired, please log in"), nil
		}
		m.loading = true
		return m, tea.Batch(m.fetchChatsCmd(), m.fetchModelsCmd(), m.fetchBalanceCmd(), m.spin.Tick)

	case loginDoneMsg:
		if t.err != nil {
			// Generic authentication failure; no partial state was left
			// behind by the manager.
			m.notice, m.noticeKind = "Authentication failed", noticeError
			return m, nil
		}
		m.screens = []screen{screenChats}
		m.notice, m.noticeKind = "", noticeInfo
		m.loading = true
		return m, tea.Batch(m.fetchChatsCmd(), m.fetchModelsCmd(), m.fetchBalanceCmd(), m.spin.Tick)

	case registerDoneMsg:
		if t.err != nil {
			return m.handleErr(t.err)
		}
		m.notice, m.noticeKind = "Account created, log in to continue", noticeSuccess
		m.screens = []screen{screenLogin}
		return m, nil

	case chatsLoadedMsg:
		m.loading = false
		if t.err != nil {
			return m.handleErr(t.err)
		}
		m.syncChatIndex()
		if current := m.app.Directory.Current(); current != 0 {
			return m, m.fetchHistoryCmd(current)
		}
		return m, nil

	case chatCreatedMsg:
		if t.err != nil {
			return m.handleErr(t.err)
		}
		m.syncChatIndex()
		m.notice, m.noticeKind = fmt.Sprintf("Chat #%d created", t.created.ChatID), noticeSuccess
		return m, m.fetchHistoryCmd(t.created.ChatID)

	case historyLoadedMsg:
		current := m.app.Directory.Current()
		if t.chatID != current {
			// A selection change outran this response; its content belongs
			// to a chat that is no longer on screen.
			m.logDiscardedHistory(t, current)
			return m, nil
		}
		if t.err != nil {
			return m.handleErr(t.err)
		}
		m.renderHistory(t.history)
		return m, nil

	case messageSentMsg:
		if t.err != nil {
			if errors.Is(t.err, chat.ErrNothingToSend) {
				return m, nil
			}
			if errors.Is(t.err, chat.ErrSendInFlight) {
				m.notice, m.noticeKind = "Still sending previous message", noticeInfo
				return m, nil
			}
			return m.handleErr(t.err)
		}
		m.msgInput.SetValue("")
		return m, m.refreshAfterSend(t.chatID)

	case balanceLoadedMsg:
		if t.err != nil {
			return m.handleErr(t.err)
		}
		return m, nil

	case modelsLoadedMsg:
		if t.err != nil {
			return m.handleErr(t.err)
		}
		return m, nil

	case topUpDoneMsg:
		if t.err != nil {
			return m.handleErr(t.err)
		}
		m.closeOverlay()
		m.topUpInput.SetValue("")
		m.notice, m.noticeKind = fmt.Sprintf("Balance: %d tokens", t.balance), noticeSuccess
		return m, nil

	case codeRequestedMsg:
		m.recBusy = false
		if t.err != nil {
			return m.handleErr(t.err)
		}
		m.flow = t.flow
		m.recInput.SetValue("")
		m.recInput.Placeholder = "6-character code"
		m.notice, m.noticeKind = "Code sent, check your messages", noticeInfo
		return m, nil

	case codeVerifiedMsg:
		m.recBusy = false
		if t.err != nil {
			return m.handleErr(t.err)
		}
		m.flow = t.flow
		m.notice, m.noticeKind = "Password reset, the new one is on its way to you", noticeSuccess
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(t)
	}

	return m, nil
}

func (m appModel) updateKeys(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	if k.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	switch m.currentOverlay() {
	case overlayNewChat:
		return m.updateNewChat(k)
	case overlayModelSelect:
		return m.updateModelSelect(k)
	case overlayTopUp:
		return m.updateTopUp(k)
	case overlaySystemMessage:
		return m.updateSystemMessage(k)
	case overlayQuitConfirm:
		return m.updateQuitConfirm(k)
	}

	switch m.currentScreen() {
	case screenLogin:
		return m.updateLogin(k)
	case screenRegister:
		return m.updateRegister(k)
	case screenRecovery:
		return m.updateRecovery(k)
	case screenChats:
		return m.updateChats(k)
	}
	return m, nil
}

func (m appModel) updateLogin(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "esc":
		m.openOverlay(overlayQuitConfirm)
		return m, nil
	case "tab", "shift+tab", "up", "down":
		m.loginFocus = (m.loginFocus + 1) % len(m.loginInputs)
		for i := range m.loginInputs {
			if i == m.loginFocus {
				m.loginInputs[i].Focus()
			} else {
				m.loginInputs[i].Blur()
			}
		}
		return m, textinput.Blink
	case "ctrl+r":
		m.screens = []screen{screenRegister}
		return m, nil
	case "ctrl+f":
		m.flow = recovery.New()
		m.recInput.SetValue("")
		m.recInput.Placeholder = "username"
		m.screens = []screen{screenRecovery}
		return m, nil
	case "enter":
		username := strings.TrimSpace(m.loginInputs[0].Value())
		password := m.loginInputs[1].Value()
		if username == "" || password == "" {
			m.notice, m.noticeKind = "Username and password are required", noticeError
			return m, nil
		}
		return m, m.loginCmd(username, password)
	}

	var cmd tea.Cmd
	m.loginInputs[m.loginFocus], cmd = m.loginInputs[m.loginFocus].Update(k)
	return m, cmd
}

func (m appModel) updateRegister(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "esc":
		m.screens = []screen{screenLogin}
		return m, nil
	case "tab", "shift+tab", "up", "down":
		m.regFocus = (m.regFocus + 1) % len(m.regInputs)
		for i := range m.regInputs {
			if i == m.regFocus {
				m.regInputs[i].Focus()
			} else {
				m.regInputs[i].Blur()
			}
		}
		return m, textinput.Blink
	case "enter":
		username := strings.TrimSpace(m.regInputs[0].Value())
		email := strings.TrimSpace(m.regInputs[1].Value())
		password := m.regInputs[2].Value()
		if username == "" || email == "" || password == "" {
			m.notice, m.noticeKind = "All fields are required", noticeError
			return m, nil
		}
		return m, m.registerCmd(username, email, password)
	}

	var cmd tea.Cmd
	m.regInputs[m.regFocus], cmd = m.regInputs[m.regFocus].Update(k)
	return m, cmd
}

func (m appModel) updateRecovery(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "esc":
		m.flow = m.flow.Cancel()
		m.screens = []screen{screenLogin}
		return m, nil
	case "enter":
		if m.recBusy {
			return m, nil
		}
		switch m.flow.Step {
		case recovery.StepRequest:
			m.recBusy = true
			return m, m.requestCodeCmd(strings.TrimSpace(m.recInput.Value()))
		case recovery.StepVerify:
			m.recBusy = true
			return m, m.verifyCodeCmd(strings.TrimSpace(m.recInput.Value()))
		case recovery.StepDone:
			m.screens = []screen{screenLogin}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.recInput, cmd = m.recInput.Update(k)
	return m, cmd
}

func (m appModel) updateChats(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "esc":
		m.openOverlay(overlayQuitConfirm)
		return m, nil
	case "tab":
		m.sidebarFocus = !m.sidebarFocus
		if m.sidebarFocus {
			m.msgInput.Blur()
		} else {
			m.msgInput.Focus()
		}
		return m, nil
	case "ctrl+n":
		m.openOverlay(overlayNewChat)
		return m, nil
	case "ctrl+o":
		m.modelIndex = 0
		m.openOverlay(overlayModelSelect)
		return m, nil
	case "ctrl+t":
		m.openOverlay(overlayTopUp)
		m.topUpInput.Focus()
		return m, textinput.Blink
	case "ctrl+e":
		m.sysMsgInput.SetValue(m.app.Registry.SystemMessage())
		m.openOverlay(overlaySystemMessage)
		m.sysMsgInput.Focus()
		return m, textinput.Blink
	case "ctrl+l":
		m.app.Session.Logout()
		return m.forceLogin("Logged out"), nil
	case "ctrl+r":
		m.loading = true
		return m, tea.Batch(m.fetchChatsCmd(), m.fetchBalanceCmd(), m.fetchModelsCmd(), m.spin.Tick)
	}

	if m.sidebarFocus {
		return m.updateSidebar(k)
	}

	if k.String() == "enter" {
		return m.submitMessage()
	}
	if k.String() == "up" || k.String() == "down" || k.String() == "pgup" || k.String() == "pgdown" {
		var cmd tea.Cmd
		m.historyView, cmd = m.historyView.Update(k)
		return m, cmd
	}

	var cmd tea.Cmd
	m.msgInput, cmd = m.msgInput.Update(k)
	return m, cmd
}

func (m appModel) updateSidebar(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	chats := m.app.Directory.Chats()
	switch k.String() {
	case "up", "k":
		if m.chatIndex > 0 {
			m.chatIndex--
		}
		return m, nil
	case "down", "j":
		if m.chatIndex < len(chats)-1 {
			m.chatIndex++
		}
		return m, nil
	case "enter":
		if m.chatIndex >= 0 && m.chatIndex < len(chats) {
			id := chats[m.chatIndex].ChatID
			m.app.Directory.Select(id)
			m.sidebarFocus = false
			m.msgInput.Focus()
			return m, m.fetchHistoryCmd(id)
		}
		return m, nil
	}
	return m, nil
}

// submitMessage applies the send preconditions that live in UI state: a
// selected model must exist and no send may already be outstanding for
// the current chat. Everything else is checked inside Exchange.Send.
func (m appModel) submitMessage() (tea.Model, tea.Cmd) {
	current := m.app.Directory.Current()
	text := m.msgInput.Value()
	if strings.TrimSpace(text) == "" || current == 0 {
		return m, nil
	}
	if m.app.Registry.Empty() {
		m.notice, m.noticeKind = "No models available yet", noticeError
		return m, nil
	}
	if m.app.Exchange.Sending(current) {
		return m, nil
	}
	return m, m.sendCmd(current, text)
}

func (m appModel) updateNewChat(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "esc":
		m.closeOverlay()
		return m, nil
	case "up", "k":
		if m.langIndex > 0 {
			m.langIndex--
		}
		return m, nil
	case "down", "j":
		if m.langIndex < len(chatLanguages)-1 {
			m.langIndex++
		}
		return m, nil
	case "enter":
		m.closeOverlay()
		return m, m.createChatCmd(chatLanguages[m.langIndex])
	}
	return m, nil
}

func (m appModel) updateModelSelect(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	list := m.app.Registry.Models()
	switch k.String() {
	case "esc":
		m.closeOverlay()
		return m, nil
	case "up", "k":
		if m.modelIndex > 0 {
			m.modelIndex--
		}
		return m, nil
	case "down", "j":
		if m.modelIndex < len(list)-1 {
			m.modelIndex++
		}
		return m, nil
	case "enter":
		if m.modelIndex >= 0 && m.modelIndex < len(list) {
			m.app.Registry.Select(list[m.modelIndex].ID)
			m.notice, m.noticeKind = "Model switched to "+list[m.modelIndex].ModelName, noticeInfo
		}
		m.closeOverlay()
		return m, nil
	}
	return m, nil
}

func (m appModel) updateTopUp(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "esc":
		m.closeOverlay()
		m.topUpInput.SetValue("")
		return m, nil
	case "enter":
		amount, err := strconv.Atoi(strings.TrimSpace(m.topUpInput.Value()))
		if err != nil || amount <= 0 {
			m.notice, m.noticeKind = "Amount must be a positive integer", noticeError
			return m, nil
		}
		return m, m.topUpCmd(amount)
	}

	var cmd tea.Cmd
	m.topUpInput, cmd = m.topUpInput.Update(k)
	return m, cmd
}

func (m appModel) updateSystemMessage(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "esc":
		m.closeOverlay()
		return m, nil
	case "enter":
		m.app.Registry.SetSystemMessage(m.sysMsgInput.Value())
		m.closeOverlay()
		m.notice, m.noticeKind = "System message updated", noticeInfo
		return m, nil
	}

	var cmd tea.Cmd
	m.sysMsgInput, cmd = m.sysMsgInput.Update(k)
	return m, cmd
}

func (m appModel) updateQuitConfirm(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "enter", "y":
		return m, tea.Quit
	case "esc", "n":
		m.closeOverlay()
		return m, nil
	}
	return m, nil
}

// handleErr routes a settled failure. Auth failures land on the login
// screen from anywhere; the session manager already cleared the token by
// the time the message reaches the loop. Everything else surfaces as a
// notice with the best available message, and nothing auto-retries here.
func (m appModel) handleErr(err error) (tea.Model, tea.Cmd) {
	var authErr *api.AuthError
	if errors.As(err, &authErr) {
		return m.forceLogin("Session expired, please log in"), nil
	}

	var vErr *api.ValidationError
	if errors.As(err, &vErr) {
		m.notice, m.noticeKind = vErr.Reason, noticeError
		return m, nil
	}

	var srvErr *api.ServerError
	if errors.As(err, &srvErr) && srvErr.Detail != "" {
		m.notice, m.noticeKind = srvErr.Detail, noticeError
		return m, nil
	}

	m.notice, m.noticeKind = "Request failed, try again", noticeError
	m.app.Log.Warn("operation failed", zapError(err))
	return m, nil
}

// forceLogin is the unauthenticated entry point: screens reset, overlays
// dropped, credential inputs cleared.
func (m appModel) forceLogin(notice string) appModel {
	m.screens = []screen{screenLogin}
	m.overlays = nil
	m.loading = false
	m.loginInputs[0].SetValue("")
	m.loginInputs[1].SetValue("")
	m.loginFocus = 0
	m.loginInputs[0].Focus()
	m.loginInputs[1].Blur()
	m.notice, m.noticeKind = notice, noticeInfo
	return m
}

func (m *appModel) syncChatIndex() {
	chats := m.app.Directory.Chats()
	current := m.app.Directory.Current()
	m.chatIndex = 0
	for i, c := range chats {
		if c.ChatID == current {
			m.chatIndex = i
			return
		}
	}
}

func (m *appModel) renderHistory(h *chat.History) {
	m.historyView.SetContent(m.historyContent(h))
	m.historyView.GotoBottom()
}

func (m appModel) currentScreen() screen {
	if len(m.screens) == 0 {
		return screenLogin
	}
	return m.screens[len(m.screens)-1]
}

func (m *appModel) openOverlay(o overlay) {
	m.overlays = append(m.overlays, o)
}

func (m *appModel) closeOverlay() {
	if len(m.overlays) > 0 {
		m.overlays = m.overlays[:len(m.overlays)-1]
	}
}

func (m appModel) currentOverlay() overlay {
	if len(m.overlays) == 0 {
		return overlayNone
	}
	return m.overlays[len(m.overlays)-1]
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
