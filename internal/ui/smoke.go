package ui

import (
	"encoding/json"

	tea "github.com/charmbracelet/bubbletea"

	"freechat/internal/recovery"
)

// RunSmoke drives the model through a deterministic key sequence with no
// network and returns a JSON summary. Useful for verifying the screen and
// overlay wiring in environments without a terminal.
func RunSmoke(m appModel) string {
	var model tea.Model = m

	key := func(runes string) {
		model, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(runes)})
	}
	press := func(t tea.KeyType) {
		model, _ = model.Update(tea.KeyMsg{Type: t})
	}

	// Login -> register -> back.
	registerOpened := false
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	if am, ok := model.(appModel); ok {
		registerOpened = am.currentScreen() == screenRegister
	}
	press(tea.KeyEscape)

	// Login -> recovery, type a username, cancel back to login.
	recoveryOpened := false
	recoveryReset := false
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyCtrlF})
	if am, ok := model.(appModel); ok {
		recoveryOpened = am.currentScreen() == screenRecovery && am.flow.Step == recovery.StepRequest
	}
	key("bob")
	press(tea.KeyEscape)
	if am, ok := model.(appModel); ok {
		recoveryReset = am.currentScreen() == screenLogin && am.flow.Step == recovery.StepRequest
	}

	// Esc on login opens the quit confirm overlay; n closes it.
	quitConfirmOpened := false
	press(tea.KeyEscape)
	if am, ok := model.(appModel); ok {
		quitConfirmOpened = am.currentOverlay() == overlayQuitConfirm
	}
	key("n")

	am, _ := model.(appModel)
	summary := map[string]any{
		"version":           1,
		"ok":                true,
		"screen":            am.currentScreen().String(),
		"overlay":           am.currentOverlay().String(),
		"registerOpened":    registerOpened,
		"recoveryOpened":    recoveryOpened,
		"recoveryReset":     recoveryReset,
		"quitConfirmOpened": quitConfirmOpened,
	}
	b, _ := json.Marshal(summary)
	return string(b)
}
