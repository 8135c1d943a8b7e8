package ledger

import "encoding/json"

// rpcRequest конверт JSON-RPC запроса к узлу реестра.
type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

// rpcResponse конверт JSON-RPC ответа узла реестра.
type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// BalanceParams параметры запроса баланса счёта.
type BalanceParams struct {
	Address string `json:"address"`
}

// BalanceResult баланс счёта в базовых единицах.
type BalanceResult struct {
	Value uint64 `json:"value"`
}

// SubmitParams параметры отправки подписанного перевода.
type SubmitParams struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Amount    uint64 `json:"amount"`
	Payload   string `json:"payload"`   // Сериализованное тело перевода
	Signature string `json:"signature"` // base64 подписи тела ключом отправителя
}

// SubmitResult подпись принятого узлом перевода.
type SubmitResult struct {
	Signature string `json:"signature"`
}

// StatusParams параметры опроса статуса перевода.
type StatusParams struct {
	Signature string `json:"signature"`
}

// StatusResult статус перевода: подтверждён ли он реестром окончательно.
type StatusResult struct {
	Confirmed bool `json:"confirmed"`
}
