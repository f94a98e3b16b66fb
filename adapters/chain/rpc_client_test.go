package chain

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeRPC answers JSON-RPC requests with scripted results per method
// and records the requests it saw.
type fakeRPC struct {
	mu       sync.Mutex
	requests []rpcRequest
	results  map[string][]string // method -> JSON results, consumed in order
	rpcErrs  map[string]*RPCError
}

func newFakeRPC() *fakeRPC {
	return &fakeRPC{
		results: map[string][]string{},
		rpcErrs: map[string]*RPCError{},
	}
}

func (f *fakeRPC) handler(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.requests = append(f.requests, req)
	rpcErr := f.rpcErrs[req.Method]
	var result string
	if queue := f.results[req.Method]; len(queue) > 0 {
		result = queue[0]
		f.results[req.Method] = queue[1:]
	}
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if rpcErr != nil {
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":1,"error":{"code":%d,"message":%q}}`, rpcErr.Code, rpcErr.Message)
		return
	}
	fmt.Fprintf(w, `{"jsonrpc":"2.0","id":1,"result":%s}`, result)
}

func (f *fakeRPC) lastRequest(t *testing.T) rpcRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

func newTestClient(t *testing.T) (*Client, *fakeRPC) {
	t.Helper()

	fake := newFakeRPC()
	srv := httptest.NewServer(http.HandlerFunc(fake.handler))
	t.Cleanup(srv.Close)

	return NewClient(srv.URL, zap.NewNop()), fake
}

func TestGetBalance(t *testing.T) {
	client, fake := newTestClient(t)
	fake.results["getBalance"] = []string{`{"context":{"slot":1},"value":1000000000}`}

	balance, err := client.GetBalance(context.Background(), "ABCXYZ")
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000_000), balance)

	req := fake.lastRequest(t)
	assert.Equal(t, "getBalance", req.Method)
	assert.Equal(t, []any{"ABCXYZ"}, req.Params)
}

func TestGetBalancePropagatesRPCError(t *testing.T) {
	client, fake := newTestClient(t)
	fake.rpcErrs["getBalance"] = &RPCError{Code: -32602, Message: "Invalid param"}

	_, err := client.GetBalance(context.Background(), "bad")
	require.Error(t, err)

	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32602, rpcErr.Code)
}

func TestGetLatestBlockhash(t *testing.T) {
	client, fake := newTestClient(t)
	fake.results["getLatestBlockhash"] = []string{`{"context":{"slot":1},"value":{"blockhash":"recent-hash","lastValidBlockHeight":100}}`}

	blockhash, err := client.GetLatestBlockhash(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "recent-hash", blockhash)
}

func TestRequestAirdrop(t *testing.T) {
	client, fake := newTestClient(t)
	fake.results["requestAirdrop"] = []string{`"airdrop-sig"`}

	sig, err := client.RequestAirdrop(context.Background(), "ABCXYZ", 2_000_000_000)
	require.NoError(t, err)
	assert.Equal(t, "airdrop-sig", sig)

	req := fake.lastRequest(t)
	require.Len(t, req.Params, 2)
	assert.Equal(t, "ABCXYZ", req.Params[0])
	assert.Equal(t, float64(2_000_000_000), req.Params[1])
}

func TestSendRawTransactionEncodesBase64(t *testing.T) {
	client, fake := newTestClient(t)
	fake.results["sendTransaction"] = []string{`"tx-sig"`}

	raw := []byte("wire bytes")
	sig, err := client.SendRawTransaction(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "tx-sig", sig)

	req := fake.lastRequest(t)
	require.Len(t, req.Params, 2)
	assert.Equal(t, base64.StdEncoding.EncodeToString(raw), req.Params[0])
	assert.Equal(t, map[string]any{"encoding": "base64"}, req.Params[1])
}

func TestConfirmTransactionPollsUntilConfirmed(t *testing.T) {
	client, fake := newTestClient(t)
	fake.results["getSignatureStatuses"] = []string{
		`{"context":{"slot":1},"value":[null]}`,
		`{"context":{"slot":2},"value":[{"confirmationStatus":"processed","err":null}]}`,
		`{"context":{"slot":3},"value":[{"confirmationStatus":"confirmed","err":null}]}`,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, client.ConfirmTransaction(ctx, "tx-sig"))

	fake.mu.Lock()
	polls := len(fake.requests)
	fake.mu.Unlock()
	assert.Equal(t, 3, polls)
}

func TestConfirmTransactionFailsOnChainError(t *testing.T) {
	client, fake := newTestClient(t)
	fake.results["getSignatureStatuses"] = []string{
		`{"context":{"slot":1},"value":[{"confirmationStatus":"processed","err":{"InstructionError":[0,"Custom"]}}]}`,
	}

	err := client.ConfirmTransaction(context.Background(), "tx-sig")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed on chain")
}
