package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chainorders/upwood-sub002/client/core/contract"
	"github.com/chainorders/upwood-sub002/client/core/sponsor"
	"github.com/chainorders/upwood-sub002/client/core/transaction"
	"github.com/chainorders/upwood-sub002/client/core/transport"
	"github.com/chainorders/upwood-sub002/client/core/transport/transporttest"
	"github.com/chainorders/upwood-sub002/client/core/wallet"
	"github.com/chainorders/upwood-sub002/client/core/wallet/wallettest"
	"github.com/chainorders/upwood-sub002/client/pkg/config"
)

func TestClient_ReadOnly(t *testing.T) {
	n := new(transporttest.Node)
	n.On("GetBlockItemStatus", mock.Anything, "h").Return(transporttest.Committed(), nil)

	c := New(n)
	assert.Nil(t, c.Wallet())

	status, err := c.TransactionStatus(context.Background(), "h")
	require.NoError(t, err)
	assert.Equal(t, transport.StatusCommitted, status.Status)

	_, err = c.NewSubmitter()
	assert.ErrorIs(t, err, ErrNoWallet)
	_, _, err = c.SendAndWait(context.Background(), &transaction.Request{})
	assert.ErrorIs(t, err, ErrNoWallet)
	_, err = c.SignPermit(context.Background(), &sponsor.Request{})
	assert.ErrorIs(t, err, ErrNoWallet)
}

func TestClient_Submitter(t *testing.T) {
	n := new(transporttest.Node)
	w := new(wallettest.Wallet)
	w.On("SendTransaction", mock.Anything, "acct", wallet.KindUpdate, mock.Anything, "").Return("h1", nil)
	n.On("GetBlockItemStatus", mock.Anything, "h1").Return(transporttest.Finalized(&transport.BlockItemSummary{
		Hash: "h1", Type: transport.ItemTypeAccountTransaction, TransactionType: transport.TxTypeUpdate,
	}), nil)

	c := New(n, WithWallet(w), WithPollInterval(time.Millisecond))
	s, err := c.NewSubmitter()
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Submit(context.Background(), &transaction.Request{
		Account: "acct",
		Method:  contract.MustReceiveMethod("market", "pause", 1000),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	st, err := s.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, transaction.PhaseFinalized, st.Phase)
	assert.True(t, st.Outcome.Succeeded())
}

func TestNewFromConfig(t *testing.T) {
	cfg := &config.Config{
		Node:   config.NodeConfig{Endpoint: "http://node/jsonrpc", Timeout: time.Second, PollInterval: 10 * time.Millisecond},
		Wallet: config.WalletConfig{Endpoint: "http://wallet/jsonrpc", Timeout: time.Second},
	}
	c := NewFromConfig(cfg, nil)

	node, ok := c.Node().(*transport.JSONRPCClient)
	require.True(t, ok)
	assert.Equal(t, "http://node/jsonrpc", node.Endpoint())
	assert.IsType(t, &wallet.RPCWallet{}, c.Wallet())
	assert.Equal(t, 10*time.Millisecond, c.pollInterval)
}
