// Package models tracks the selectable model list, the active selection,
// and the system-message override read by the message exchange.
package models

import (
	"context"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"freechat/internal/api"
)

// Model is one selectable backend model.
type Model struct {
	ID          int64  `json:"id"`
	CompanyName string `json:"company_name"`
	ModelName   string `json:"model_name"`
}

// Registry holds the fetched model list plus two caller-mutable slots: the
// selected model id and the free-form system message.
type Registry struct {
	client *api.Client
	log    *zap.Logger

	mu            sync.Mutex
	models        []Model
	selected      int64 // 0 = unset
	systemMessage string
}

// NewRegistry returns an empty registry.
func NewRegistry(client *api.Client, log *zap.Logger) *Registry {
	return &Registry{client: client, log: log}
}

type modelList struct {
	Items []Model `json:"items"`
}

// Fetch replaces the model list wholesale. When nothing is selected yet,
// selection defaults to the first entry returned.
func (r *Registry) Fetch(ctx context.Context) ([]Model, error) {
	var out modelList
	if err := r.client.DispatchJSON(ctx, http.MethodGet, api.EndpointModels, nil, api.Params{}, &out); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.models = out.Items
	if r.selected == 0 && len(r.models) > 0 {
		r.selected = r.models[0].ID
	}
	r.log.Debug("model list replaced", zap.Int("count", len(r.models)), zap.Int64("selected", r.selected))
	return r.models, nil
}

// Models returns the last fetched list.
func (r *Registry) Models() []Model {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Model, len(r.models))
	copy(out, r.models)
	return out
}

// Empty reports whether no models are available. Sends are refused while
// the registry is empty; there is no model_name/company_name to attach.
func (r *Registry) Empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.models) == 0
}

// Select sets the active model id.
func (r *Registry) Select(id int64) {
	r.mu.Lock()
	r.selected = id
	r.mu.Unlock()
}

// Selected returns the active model, if any.
func (r *Registry) Selected() (Model, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.models {
		if m.ID == r.selected {
			return m, true
		}
	}
	return Model{}, false
}

// SystemMessage returns the current override text.
func (r *Registry) SystemMessage() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.systemMessage
}

// SetSystemMessage replaces the override text.
func (r *Registry) SetSystemMessage(s string) {
	r.mu.Lock()
	r.systemMessage = s
	r.mu.Unlock()
}
