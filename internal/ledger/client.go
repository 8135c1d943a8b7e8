// Package ledger реализует клиент узла реестра: запрос баланса счёта
// и перевод средств с ожиданием подтверждения. Перевод необратим:
// после подтверждения его нельзя откатить, а повторная отправка
// неподтверждённого перевода запрещена из-за риска двойного списания.
package ledger

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// ErrUnconfirmed перевод отправлен, но узел не подтвердил его за отведённое
// число опросов. Для вызывающей стороны неотличим от сбоя перевода.
var ErrUnconfirmed = errors.New("transfer is not confirmed")

// Client клиент JSON-RPC узла реестра.
type Client struct {
	apiURL          string
	httpClient      *http.Client
	confirmAttempts int
	confirmDelay    time.Duration
}

// NewClient создаёт клиент узла реестра по адресу apiURL.
func NewClient(apiURL string) *Client {
	return &Client{
		apiURL:          apiURL,
		httpClient:      &http.Client{Timeout: 10 * time.Second},
		confirmAttempts: 30,
		confirmDelay:    time.Second,
	}
}

func (c *Client) call(ctx context.Context, method string, params, result any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(rpcRequest{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  method,
		Params:  params,
	}); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.New("unexpected status: " + resp.Status)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return err
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}
	return json.Unmarshal(rpcResp.Result, result)
}

// GetBalance возвращает доступный баланс счёта address в базовых единицах.
func (c *Client) GetBalance(ctx context.Context, address string) (uint64, error) {
	const op = "ledger.GetBalance"
	var result BalanceResult
	if err := c.call(ctx, "account.getBalance", BalanceParams{Address: address}, &result); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return result.Value, nil
}

// Transfer строит, подписывает и отправляет перевод amount базовых единиц
// со счёта from на счёт to, после чего опрашивает узел до подтверждения.
// Возвращает подпись подтверждённого перевода. Неподтверждённый перевод
// считается сбоем: повторная отправка здесь не выполняется.
func (c *Client) Transfer(ctx context.Context, from, to string, amount uint64, signingKey []byte) (string, error) {
	const op = "ledger.Transfer"

	if len(signingKey) != ed25519.PrivateKeySize {
		return "", fmt.Errorf("%s: bad signing key length %d", op, len(signingKey))
	}
	if amount == 0 {
		return "", fmt.Errorf("%s: zero transfer amount", op)
	}

	payload := fmt.Sprintf("%s:%s:%d:%d", from, to, amount, time.Now().UnixNano())
	signature := ed25519.Sign(ed25519.PrivateKey(signingKey), []byte(payload))

	var submitted SubmitResult
	err := c.call(ctx, "transfer.submit", SubmitParams{
		From:      from,
		To:        to,
		Amount:    amount,
		Payload:   payload,
		Signature: base64.StdEncoding.EncodeToString(signature),
	}, &submitted)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	for range c.confirmAttempts {
		var status StatusResult
		if err := c.call(ctx, "transfer.status", StatusParams{Signature: submitted.Signature}, &status); err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		if status.Confirmed {
			return submitted.Signature, nil
		}
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(c.confirmDelay):
		}
	}
	return "", fmt.Errorf("%s: %w", op, ErrUnconfirmed)
}
