package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticTokens string

func (s staticTokens) Token() string { return string(s) }

func newTestClient(baseURL string, tok string, opts ...Option) *Client {
	return NewClient(baseURL, staticTokens(tok), zap.NewNop(), opts...)
}

func TestDispatch_BearerHeader(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL, "tok123")
	_, err := c.Dispatch(context.Background(), http.MethodGet, "/chat", nil, Params{})
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok123", gotAuth)

	c = newTestClient(server.URL, "")
	_, err = c.Dispatch(context.Background(), http.MethodGet, "/chat", nil, Params{})
	require.NoError(t, err)
	assert.Empty(t, gotAuth, "no Authorization header without a token")
}

func TestDispatch_PathAndQuery(t *testing.T) {
	var gotPath, gotQuery string
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	query := url.Values{}
	query.Set("model_name", "gigachat")
	query.Set("company_name", "gigachat")

	c := newTestClient(server.URL, "tok")
	resp, err := c.Dispatch(context.Background(), http.MethodPost, EndpointChatMessage,
		map[string]string{"message_data": "Hello"},
		Params{
			URL:   map[string]string{"chat_id": "42"},
			Query: query,
		})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.Status)
	assert.Equal(t, "/chat/42/message", gotPath)
	assert.Equal(t, "company_name=gigachat&model_name=gigachat", gotQuery)
	assert.Equal(t, "Hello", gotBody["message_data"])
}

func TestDispatch_MissingURLParam(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer server.Close()

	c := newTestClient(server.URL, "tok")
	_, err := c.Dispatch(context.Background(), http.MethodGet, EndpointChatHistory, nil, Params{})
	var te *TemplateError
	require.ErrorAs(t, err, &te)
	assert.Zero(t, hits, "no request may leave with an unresolved placeholder")
}

func TestDispatch_ErrorTaxonomy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/unauthorized":
			w.WriteHeader(http.StatusUnauthorized)
		case "/boom":
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"detail":"database is on fire"}`))
		case "/message":
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"message":"bad language"}`))
		}
	}))
	defer server.Close()

	c := newTestClient(server.URL, "tok")

	_, err := c.Dispatch(context.Background(), http.MethodGet, "/unauthorized", nil, Params{})
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)

	_, err = c.Dispatch(context.Background(), http.MethodGet, "/boom", nil, Params{})
	var srvErr *ServerError
	require.ErrorAs(t, err, &srvErr)
	assert.Equal(t, http.StatusInternalServerError, srvErr.Status)
	assert.Equal(t, "database is on fire", srvErr.Detail)

	_, err = c.Dispatch(context.Background(), http.MethodGet, "/message", nil, Params{})
	require.ErrorAs(t, err, &srvErr)
	assert.Equal(t, "bad language", srvErr.Detail)
}

func TestDispatch_UnauthorizedHook(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	var fired atomic.Int32
	c := newTestClient(server.URL, "tok")
	c.SetUnauthorizedHook(func() { fired.Add(1) })

	_, err := c.Dispatch(context.Background(), http.MethodGet, "/anything", nil, Params{})
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, int32(1), fired.Load())
}

func TestDispatch_TransportRetried(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			// Kill the connection mid-flight so the client sees a
			// transport failure rather than a response.
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Fatal("hijacking unsupported")
			}
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			conn.Close()
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL, "tok", WithRetry(2, time.Millisecond))
	resp, err := c.Dispatch(context.Background(), http.MethodGet, "/flaky", nil, Params{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestDispatch_ServerErrorNotRetried(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := newTestClient(server.URL, "tok", WithRetry(3, time.Millisecond))
	_, err := c.Dispatch(context.Background(), http.MethodGet, "/boom", nil, Params{})
	var srvErr *ServerError
	require.ErrorAs(t, err, &srvErr)
	assert.Equal(t, int32(1), attempts.Load(), "server errors must not be retried")
}

func TestDispatchJSON_Decodes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"balance": 100}`))
	}))
	defer server.Close()

	var out struct {
		Balance int `json:"balance"`
	}
	c := newTestClient(server.URL, "tok")
	require.NoError(t, c.DispatchJSON(context.Background(), http.MethodGet, EndpointTokens, nil, Params{}, &out))
	assert.Equal(t, 100, out.Balance)
}
