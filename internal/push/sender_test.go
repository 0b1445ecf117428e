package push

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/mrintern/server/internal/config"
	"github.com/mrintern/server/internal/domain/subscriptions"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPruner struct {
	mu     sync.Mutex
	pruned []string
}

func (p *recordingPruner) Prune(_ context.Context, endpoint string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pruned = append(p.pruned, endpoint)
	return nil
}

func testKeys(t *testing.T) subscriptions.Keys {
	t.Helper()
	priv, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	auth := make([]byte, 16)
	_, err = rand.Read(auth)
	require.NoError(t, err)
	return subscriptions.Keys{
		P256dh: base64.RawURLEncoding.EncodeToString(priv.PublicKey().Bytes()),
		Auth:   base64.RawURLEncoding.EncodeToString(auth),
	}
}

func testConfig(t *testing.T) config.PushConfig {
	t.Helper()
	public, private, err := GenerateVAPIDKeys()
	require.NoError(t, err)
	return config.PushConfig{
		VAPIDPublicKey:  public,
		VAPIDPrivateKey: private,
		VAPIDSubject:    "mailto:admin@example.com",
		TTL:             60,
	}
}

func TestNewPayloadDefaults(t *testing.T) {
	p := NewPayload("New internships", "3 new matches")
	assert.Equal(t, "/icon.png", p.Icon)
	assert.Equal(t, "/internships", p.URL)
}

func TestSendToAllIsolatesFailuresAndPrunesExpired(t *testing.T) {
	var mu sync.Mutex
	hits := map[string]int{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits[r.URL.Path]++
		mu.Unlock()

		assert.Equal(t, "aes128gcm", r.Header.Get("Content-Encoding"))
		assert.Contains(t, r.Header.Get("Authorization"), "vapid")
		switch r.URL.Path {
		case "/gone":
			w.WriteHeader(http.StatusGone)
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("upstream down"))
		default:
			w.WriteHeader(http.StatusCreated)
		}
	}))
	defer server.Close()

	pruner := &recordingPruner{}
	sender := NewSender(testConfig(t), pruner, zerolog.Nop()).WithHTTPClient(server.Client())

	var subs []subscriptions.Subscription
	for _, path := range []string{"/ok-1", "/gone", "/broken", "/ok-2", "/missing"} {
		subs = append(subs, subscriptions.Subscription{ID: path, UserID: "u1", Endpoint: server.URL + path, Keys: testKeys(t)})
	}

	result := sender.SendToAll(context.Background(), subs, NewPayload("Hello", "World"))

	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, 2, result.Expired)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	var statusErr *StatusError
	require.ErrorAs(t, result.Errors[0], &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Equal(t, "upstream down", statusErr.Body)

	assert.ElementsMatch(t, []string{server.URL + "/gone", server.URL + "/missing"}, pruner.pruned)
	for _, sub := range subs {
		assert.Equal(t, 1, hits[sub.ID], "every subscription should be attempted once")
	}
}

func TestSendDisabled(t *testing.T) {
	sender := NewSender(config.PushConfig{}, nil, zerolog.Nop())

	assert.False(t, sender.Enabled())
	err := sender.Send(context.Background(), subscriptions.Subscription{Endpoint: "https://push.example.com"}, NewPayload("a", "b"))
	require.ErrorIs(t, err, ErrDisabled)
	assert.Zero(t, sender.SendToAll(context.Background(), []subscriptions.Subscription{{}}, NewPayload("a", "b")).Sent)
}

func TestGenerateVAPIDKeys(t *testing.T) {
	public, private, err := GenerateVAPIDKeys()
	require.NoError(t, err)

	pub, err := base64.RawURLEncoding.DecodeString(public)
	require.NoError(t, err)
	assert.Len(t, pub, 65)
	priv, err := base64.RawURLEncoding.DecodeString(private)
	require.NoError(t, err)
	assert.Len(t, priv, 32)
}
