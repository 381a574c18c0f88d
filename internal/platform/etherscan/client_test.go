package etherscan

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const txListFixture = `{
	"status": "1",
	"message": "OK",
	"result": [
		{
			"hash": "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
			"to": "0x2222222222222222222222222222222222222222",
			"from": "0x3333333333333333333333333333333333333333",
			"value": "99999999999999999999999999",
			"blockNumber": "18000000",
			"confirmations": "12",
			"isError": "0"
		},
		{
			"hash": "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
			"to": "0x2222222222222222222222222222222222222222",
			"from": "0x4444444444444444444444444444444444444444",
			"value": "1000000000000000000",
			"blockNumber": "18000001",
			"confirmations": "3",
			"isError": "1"
		}
	]
}`

func TestTxListByAddress(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"module":  r.URL.Query().Get("module"),
			"action":  r.URL.Query().Get("action"),
			"address": r.URL.Query().Get("address"),
			"chainid": r.URL.Query().Get("chainid"),
			"apikey":  r.URL.Query().Get("apikey"),
		}
		w.Write([]byte(txListFixture))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", 1, 5*time.Second)

	txs, err := client.TxListByAddress(context.Background(), "0x2222222222222222222222222222222222222222")
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, "account", gotQuery["module"])
	assert.Equal(t, "txlist", gotQuery["action"])
	assert.Equal(t, "0x2222222222222222222222222222222222222222", gotQuery["address"])
	assert.Equal(t, "1", gotQuery["chainid"])
	assert.Equal(t, "test-key", gotQuery["apikey"])

	// Hash and addresses are lowercased; the wei value stays a string.
	first := txs[0]
	assert.Equal(t, "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", first.Hash)
	assert.Equal(t, "0x3333333333333333333333333333333333333333", first.From)
	assert.Equal(t, "99999999999999999999999999", first.ValueWei)
	assert.Equal(t, int64(18000000), first.BlockNumber)
	assert.Equal(t, int64(12), first.Confirmations)
	assert.False(t, first.IsError)

	assert.True(t, txs[1].IsError)
}

func TestTxListByAddress_EmptyHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"0","message":"No transactions found","result":[]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", 1, 5*time.Second)

	txs, err := client.TxListByAddress(context.Background(), "0x2222222222222222222222222222222222222222")
	require.NoError(t, err)
	assert.Empty(t, txs)
	assert.NotNil(t, txs)
}

func TestTxListByAddress_SourceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"0","message":"Max rate limit reached","result":[]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", 1, 5*time.Second)

	_, err := client.TxListByAddress(context.Background(), "0x2222222222222222222222222222222222222222")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestTxListByAddress_HTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", 1, 5*time.Second)

	_, err := client.TxListByAddress(context.Background(), "0x2222222222222222222222222222222222222222")
	assert.ErrorIs(t, err, ErrUnavailable)

	// Unreachable host.
	srv.Close()
	_, err = client.TxListByAddress(context.Background(), "0x2222222222222222222222222222222222222222")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestTxListByAddress_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", 1, 5*time.Second)

	_, err := client.TxListByAddress(context.Background(), "0x2222222222222222222222222222222222222222")
	assert.ErrorIs(t, err, ErrUnavailable)
}
