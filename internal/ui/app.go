// Package ui is the bubbletea glue around the core services. The Update
// loop is the single-threaded cooperative scheduler: every network call
// runs as a command and returns as a typed message, so slow responses
// never block input and stale responses can be recognized and dropped.
package ui

import (
	"go.uber.org/zap"

	"freechat/internal/api"
	"freechat/internal/chat"
	"freechat/internal/config"
	"freechat/internal/models"
	"freechat/internal/recovery"
	"freechat/internal/session"
	"freechat/internal/tokens"
)

// App bundles the wired core services behind the UI.
type App struct {
	Config    config.Config
	Log       *zap.Logger
	Client    *api.Client
	Session   *session.Manager
	Directory *chat.Directory
	Exchange  *chat.Exchange
	Registry  *models.Registry
	Ledger    *tokens.Ledger
	Recovery  *recovery.Service
}

// NewApp wires the full stack: token store, session manager, gateway, and
// the four resource services on top.
func NewApp(cfg config.Config, log *zap.Logger) (*App, error) {
	store := session.NewStore(cfg.StateDir)
	mgr, err := session.NewManager(store, log)
	if err != nil {
		return nil, err
	}

	client := api.NewClient(cfg.ServerURL, mgr, log,
		api.WithTimeout(cfg.RequestTimeout),
		api.WithRetry(cfg.RetryMax, 0))
	mgr.Bind(client)

	return &App{
		Config:    cfg,
		Log:       log,
		Client:    client,
		Session:   mgr,
		Directory: chat.NewDirectory(client, log),
		Exchange:  chat.NewExchange(client, log),
		Registry:  models.NewRegistry(client, log),
		Ledger:    tokens.NewLedger(client, log),
		Recovery:  recovery.NewService(client, log),
	}, nil
}

func chatSendRequest(chatID int64, text string, mdl models.Model, sysMsg string) chat.SendRequest {
	return chat.SendRequest{
		ChatID:        chatID,
		Text:          text,
		ModelName:     mdl.ModelName,
		CompanyName:   mdl.CompanyName,
		SystemMessage: sysMsg,
	}
}
