package ledger

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) ed25519.PrivateKey {
	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return priv
}

// rpcStub узел реестра для тестов: отвечает на методы из таблицы handlers.
func rpcStub(t *testing.T, handlers map[string]func(params json.RawMessage) any) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		handler, ok := handlers[req.Method]
		require.True(t, ok, "unexpected method %s", req.Method)

		result, err := json.Marshal(handler(req.Params))
		require.NoError(t, err)
		_ = json.NewEncoder(w).Encode(map[string]json.RawMessage{"result": result})
	}))
}

func newTestClient(url string) *Client {
	c := NewClient(url)
	c.confirmAttempts = 3
	c.confirmDelay = time.Millisecond
	return c
}

func TestClient_GetBalance(t *testing.T) {
	srv := rpcStub(t, map[string]func(json.RawMessage) any{
		"account.getBalance": func(params json.RawMessage) any {
			var p BalanceParams
			require.NoError(t, json.Unmarshal(params, &p))
			assert.Equal(t, "UserAccount111", p.Address)
			return BalanceResult{Value: 1_000_000}
		},
	})
	defer srv.Close()

	got, err := newTestClient(srv.URL).GetBalance(context.Background(), "UserAccount111")
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), got)
}

func TestClient_GetBalance_RPCError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": -32601, "message": "account not found"},
		})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GetBalance(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "account not found")
}

func TestClient_Transfer_Confirmed(t *testing.T) {
	key := testKey(t)
	polls := 0

	srv := rpcStub(t, map[string]func(json.RawMessage) any{
		"transfer.submit": func(params json.RawMessage) any {
			var p SubmitParams
			require.NoError(t, json.Unmarshal(params, &p))
			assert.Equal(t, uint64(495_000), p.Amount)

			// узел принимает только корректно подписанное тело перевода
			sig, err := base64.StdEncoding.DecodeString(p.Signature)
			require.NoError(t, err)
			assert.True(t, ed25519.Verify(key.Public().(ed25519.PublicKey), []byte(p.Payload), sig))

			return SubmitResult{Signature: "sig-abc"}
		},
		"transfer.status": func(params json.RawMessage) any {
			var p StatusParams
			require.NoError(t, json.Unmarshal(params, &p))
			assert.Equal(t, "sig-abc", p.Signature)
			polls++
			// подтверждение приходит со второго опроса
			return StatusResult{Confirmed: polls >= 2}
		},
	})
	defer srv.Close()

	sig, err := newTestClient(srv.URL).Transfer(context.Background(), "from", "to", 495_000, []byte(key))
	require.NoError(t, err)
	assert.Equal(t, "sig-abc", sig)
	assert.Equal(t, 2, polls)
}

func TestClient_Transfer_Unconfirmed(t *testing.T) {
	srv := rpcStub(t, map[string]func(json.RawMessage) any{
		"transfer.submit": func(json.RawMessage) any { return SubmitResult{Signature: "sig-abc"} },
		"transfer.status": func(json.RawMessage) any { return StatusResult{Confirmed: false} },
	})
	defer srv.Close()

	_, err := newTestClient(srv.URL).Transfer(context.Background(), "from", "to", 100, []byte(testKey(t)))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnconfirmed)
}

func TestClient_Transfer_BadInput(t *testing.T) {
	client := newTestClient("http://localhost:0")

	t.Run("bad signing key", func(t *testing.T) {
		_, err := client.Transfer(context.Background(), "from", "to", 100, []byte("short"))
		assert.Error(t, err)
	})

	t.Run("zero amount", func(t *testing.T) {
		_, err := client.Transfer(context.Background(), "from", "to", 0, []byte(testKey(t)))
		assert.Error(t, err)
	})
}
