package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rpcServer 按方法名返回预设结果的测试服务器
func rpcServer(t *testing.T, handler func(method string, params []json.RawMessage) (interface{}, *RPCError)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var req struct {
			JSONRPC string            `json:"jsonrpc"`
			Method  string            `json:"method"`
			Params  []json.RawMessage `json:"params"`
			ID      uint64            `json:"id"`
		}
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "2.0", req.JSONRPC)

		result, rpcErr := handler(req.Method, req.Params)
		resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestGetBlockItemStatus(t *testing.T) {
	srv := rpcServer(t, func(method string, params []json.RawMessage) (interface{}, *RPCError) {
		assert.Equal(t, "getBlockItemStatus", method)
		require.Len(t, params, 1)
		assert.JSONEq(t, `"abc"`, string(params[0]))
		return json.RawMessage(`{
			"status": "finalized",
			"outcome": {
				"blockHash": "bb",
				"hash": "abc",
				"type": "accountTransaction",
				"transactionType": "failed",
				"energyCost": "1200",
				"rejectReason": {"tag": "RejectedReceive", "rejectReason": -7, "contractAddress": {"index": 5, "subindex": 0}, "receiveName": "c.f", "returnValue": "02"}
			}
		}`), nil
	})
	defer srv.Close()

	c := NewJSONRPCClient(srv.URL, time.Second)
	status, err := c.GetBlockItemStatus(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, StatusFinalized, status.Status)
	require.NotNil(t, status.Outcome)
	assert.True(t, status.Outcome.IsFailed())
	assert.Equal(t, Uint64(1200), status.Outcome.EnergyCost)
	require.NotNil(t, status.Outcome.RejectReason)
	assert.Equal(t, int32(-7), status.Outcome.RejectReason.Code)
	assert.Equal(t, HexBytes{0x02}, status.Outcome.RejectReason.ReturnValue)
	assert.Equal(t, uint64(5), status.Outcome.RejectReason.ContractAddress.Index)
}

func TestGetBlockItemStatus_NotFound(t *testing.T) {
	srv := rpcServer(t, func(string, []json.RawMessage) (interface{}, *RPCError) {
		return nil, nil
	})
	defer srv.Close()

	_, err := NewJSONRPCClient(srv.URL, time.Second).GetBlockItemStatus(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCallInto_RPCError(t *testing.T) {
	srv := rpcServer(t, func(string, []json.RawMessage) (interface{}, *RPCError) {
		return nil, &RPCError{Code: -32000, Message: "boom"}
	})
	defer srv.Close()

	err := NewJSONRPCClient(srv.URL, time.Second).CallInto(context.Background(), "any", nil, nil)
	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32000, rpcErr.Code)
	assert.EqualError(t, err, "jsonrpc error -32000: boom")
}

func TestWaitForTransactionFinalization(t *testing.T) {
	var polls atomic.Int32
	srv := rpcServer(t, func(string, []json.RawMessage) (interface{}, *RPCError) {
		if polls.Add(1) < 3 {
			return map[string]string{"status": "committed"}, nil
		}
		return json.RawMessage(`{"status":"finalized","outcome":{"blockHash":"b","hash":"h","type":"accountTransaction","transactionType":"update"}}`), nil
	})
	defer srv.Close()

	c := NewJSONRPCClient(srv.URL, time.Second, WithPollInterval(5*time.Millisecond))
	summary, err := c.WaitForTransactionFinalization(context.Background(), "h")
	require.NoError(t, err)
	assert.Equal(t, "b", summary.BlockHash)
	assert.Equal(t, int32(3), polls.Load())
}

func TestWaitForFinalization_ContextCancel(t *testing.T) {
	srv := rpcServer(t, func(string, []json.RawMessage) (interface{}, *RPCError) {
		return map[string]string{"status": "received"}, nil
	})
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	c := NewJSONRPCClient(srv.URL, time.Second, WithPollInterval(5*time.Millisecond))
	_, err := c.WaitForTransactionFinalization(ctx, "h")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInvokeContract(t *testing.T) {
	srv := rpcServer(t, func(method string, params []json.RawMessage) (interface{}, *RPCError) {
		assert.Equal(t, "invokeInstance", method)
		var req InvokeContractRequest
		require.NoError(t, json.Unmarshal(params[0], &req))
		assert.Equal(t, "c.view", req.Method)
		assert.Equal(t, HexBytes{1, 2}, req.Parameter)
		return map[string]string{"tag": "success", "returnValue": "0a", "usedEnergy": "10"}, nil
	})
	defer srv.Close()

	res, err := NewJSONRPCClient(srv.URL, time.Second).InvokeContract(context.Background(), &InvokeContractRequest{
		Method:    "c.view",
		Parameter: HexBytes{1, 2},
	})
	require.NoError(t, err)
	assert.Equal(t, InvokeTagSuccess, res.Tag)
	assert.Equal(t, HexBytes{0x0a}, res.ReturnValue)
	assert.Equal(t, Uint64(10), res.UsedEnergy)
}

func TestUint64_Unmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want Uint64
	}{
		{`12`, 12},
		{`"34"`, 34},
		{`"0x10"`, 16},
		{`null`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var u Uint64
			require.NoError(t, json.Unmarshal([]byte(tt.in), &u))
			assert.Equal(t, tt.want, u)
		})
	}
}
