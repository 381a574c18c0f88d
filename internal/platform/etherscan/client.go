package etherscan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrUnavailable marks transport-level failures. Callers treat these as
// retryable: nothing is persisted on this path.
var ErrUnavailable = errors.New("chain source unavailable")

// Transaction is one entry of an account transaction list as the chain
// source reports it. Values stay strings until the ledger parses them:
// the source is untrusted and wei amounts can exceed int64.
type Transaction struct {
	Hash          string
	To            string
	From          string
	ValueWei      string
	BlockNumber   int64
	Confirmations int64
	IsError       bool
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	chainID    int64
}

func NewClient(baseURL, apiKey string, chainID int64, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		apiKey:  apiKey,
		chainID: chainID,
	}
}

// wire types, kept private: everything is a string in the source's JSON.
type txListResponse struct {
	Status  string       `json:"status"`
	Message string       `json:"message"`
	Result  []txListItem `json:"result"`
}

type txListItem struct {
	Hash          string `json:"hash"`
	To            string `json:"to"`
	From          string `json:"from"`
	Value         string `json:"value"`
	BlockNumber   string `json:"blockNumber"`
	Confirmations string `json:"confirmations"`
	IsError       string `json:"isError"`
}

// TxListByAddress returns the transaction history of the given address.
// An address with no history is an empty slice, not an error. Ordering and
// duplicate delivery across calls are not guaranteed by the source.
func (c *Client) TxListByAddress(ctx context.Context, address string) ([]Transaction, error) {
	q := url.Values{}
	q.Set("module", "account")
	q.Set("action", "txlist")
	q.Set("address", address)
	q.Set("startblock", "0")
	q.Set("endblock", "99999999")
	q.Set("sort", "asc")
	q.Set("chainid", strconv.FormatInt(c.chainID, 10))
	if c.apiKey != "" {
		q.Set("apikey", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build txlist request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}

	var parsed txListResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}

	// The source signals an empty history as status "0" with a descriptive
	// message; that is a valid empty result, not a failure.
	if parsed.Status != "1" {
		if strings.Contains(strings.ToLower(parsed.Message), "no transactions") {
			return []Transaction{}, nil
		}
		return nil, fmt.Errorf("%w: source error: %s", ErrUnavailable, parsed.Message)
	}

	txs := make([]Transaction, 0, len(parsed.Result))
	for _, item := range parsed.Result {
		blockNumber, _ := strconv.ParseInt(item.BlockNumber, 10, 64)
		confirmations, _ := strconv.ParseInt(item.Confirmations, 10, 64)

		txs = append(txs, Transaction{
			Hash:          strings.ToLower(item.Hash),
			To:            strings.ToLower(item.To),
			From:          strings.ToLower(item.From),
			ValueWei:      item.Value,
			BlockNumber:   blockNumber,
			Confirmations: confirmations,
			IsError:       item.IsError == "1",
		})
	}

	return txs, nil
}
