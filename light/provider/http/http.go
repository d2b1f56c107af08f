package http

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	nethttp "net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/lightvote/lightvote/light/provider"
	rpctypes "github.com/lightvote/lightvote/rpc/jsonrpc/types"
	"github.com/lightvote/lightvote/types"
)

const (
	defaultMaxRetryAttempts = 5
	defaultTimeout          = 10 * time.Second
	defaultBackoffBase      = 500 * time.Millisecond
	defaultCommitment       = "confirmed"
)

// Option sets a parameter of the http provider.
type Option func(*http)

// MaxRetryAttempts sets how many times a request is attempted before
// ErrNoResponse is returned.
func MaxRetryAttempts(n int) Option {
	return func(p *http) {
		p.maxRetryAttempts = n
	}
}

// Timeout sets the timeout of a single request.
func Timeout(d time.Duration) Option {
	return func(p *http) {
		p.client.SetTimeout(d)
	}
}

// BackoffBase sets the base delay between retries. Attempt n waits
// base*n^2 plus up to one base of jitter.
func BackoffBase(d time.Duration) Option {
	return func(p *http) {
		p.backoffBase = d
	}
}

// Commitment sets the commitment level requested for transaction lookups.
func Commitment(c string) Option {
	return func(p *http) {
		p.commitment = c
	}
}

// http provider talks JSON-RPC 2.0 to a chain node.
type http struct {
	remote           string
	client           *resty.Client
	maxRetryAttempts int
	backoffBase      time.Duration
	commitment       string
	nextID           uint64
}

var _ provider.Provider = (*http)(nil)

// New creates a HTTP provider. If no scheme is provided in the remote URL,
// http will be used by default.
func New(remote string, options ...Option) (provider.Provider, error) {
	// Ensure URL scheme is set (default HTTP) when not provided.
	if !strings.Contains(remote, "://") {
		remote = "http://" + remote
	}
	if remote == "http://" {
		return nil, errors.New("empty remote address")
	}

	p := &http{
		remote: remote,
		client: resty.New().
			SetBaseURL(remote).
			SetTimeout(defaultTimeout).
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json"),
		maxRetryAttempts: defaultMaxRetryAttempts,
		backoffBase:      defaultBackoffBase,
		commitment:       defaultCommitment,
	}
	for _, o := range options {
		o(p)
	}
	if p.maxRetryAttempts < 1 {
		return nil, fmt.Errorf("max retry attempts must be positive, got %d", p.maxRetryAttempts)
	}
	return p, nil
}

func (p *http) String() string {
	return fmt.Sprintf("http{%s}", p.remote)
}

type blockResult struct {
	Blockhash         types.Hash   `json:"blockhash"`
	PreviousBlockhash types.Hash   `json:"previousBlockhash"`
	ParentSlot        types.Slot   `json:"parentSlot"`
	Transactions      []txWithMeta `json:"transactions"`
}

type txWithMeta struct {
	Transaction []string `json:"transaction"` // [data, encoding]
}

type transactionResult struct {
	Slot        types.Slot `json:"slot"`
	Transaction []string   `json:"transaction"`
}

type voteAccountInfo struct {
	VotePubkey     types.PubKey `json:"votePubkey"`
	NodePubkey     types.PubKey `json:"nodePubkey"`
	ActivatedStake uint64       `json:"activatedStake"`
}

type voteAccountsResult struct {
	Current    []voteAccountInfo `json:"current"`
	Delinquent []voteAccountInfo `json:"delinquent"`
}

type latestBlockhashResult struct {
	Value struct {
		Blockhash types.Hash `json:"blockhash"`
	} `json:"value"`
}

// BlockHeader calls getBlockHeaders.
func (p *http) BlockHeader(ctx context.Context, slot types.Slot) (*types.BlockHeader, error) {
	var h types.BlockHeader
	if err := p.call(ctx, "getBlockHeaders", &h, slot); err != nil {
		if errors.Is(err, rpctypes.ErrNullResult) {
			return nil, provider.ErrBlockNotFound
		}
		return nil, err
	}
	if h.Slot != slot {
		return nil, provider.ErrBadResponse{Reason: fmt.Errorf("asked for slot %d, got header of slot %d", slot, h.Slot)}
	}
	if err := h.ValidateBasic(); err != nil {
		return nil, provider.ErrBadResponse{Reason: err}
	}
	return &h, nil
}

// TransactionProof calls getTransactionProof.
func (p *http) TransactionProof(ctx context.Context, sig types.Signature, slot types.Slot) (*types.InclusionProof, error) {
	var proof types.InclusionProof
	if err := p.call(ctx, "getTransactionProof", &proof, sig.String(), slot); err != nil {
		if errors.Is(err, rpctypes.ErrNullResult) {
			return nil, provider.ErrTransactionNotFound
		}
		return nil, err
	}
	return &proof, nil
}

// Block calls getBlock with base64 encoded transactions.
func (p *http) Block(ctx context.Context, slot types.Slot) (*types.Block, error) {
	var res blockResult
	err := p.call(ctx, "getBlock", &res, slot, map[string]interface{}{
		"encoding":                       "base64",
		"transactionDetails":             "full",
		"rewards":                        false,
		"maxSupportedTransactionVersion": 0,
	})
	if err != nil {
		if errors.Is(err, rpctypes.ErrNullResult) {
			return nil, provider.ErrBlockNotFound
		}
		return nil, err
	}

	block := &types.Block{
		Slot:              slot,
		ParentSlot:        res.ParentSlot,
		Blockhash:         res.Blockhash,
		PreviousBlockhash: res.PreviousBlockhash,
		Transactions:      make([][]byte, 0, len(res.Transactions)),
	}
	for i, tx := range res.Transactions {
		raw, err := decodeEncodedTx(tx.Transaction)
		if err != nil {
			return nil, provider.ErrBadResponse{Reason: fmt.Errorf("tx #%d: %w", i, err)}
		}
		block.Transactions = append(block.Transactions, raw)
	}
	return block, nil
}

// VoteAccounts calls getVoteAccounts and getSlot.
func (p *http) VoteAccounts(ctx context.Context) ([]types.VoteAccount, types.Slot, error) {
	var slot types.Slot
	if err := p.call(ctx, "getSlot", &slot); err != nil {
		return nil, 0, err
	}

	var res voteAccountsResult
	if err := p.call(ctx, "getVoteAccounts", &res); err != nil {
		return nil, 0, err
	}

	accounts := make([]types.VoteAccount, 0, len(res.Current)+len(res.Delinquent))
	for _, a := range res.Current {
		accounts = append(accounts, types.VoteAccount{
			VotePubkey: a.VotePubkey, NodePubkey: a.NodePubkey, ActivatedStake: a.ActivatedStake,
		})
	}
	for _, a := range res.Delinquent {
		accounts = append(accounts, types.VoteAccount{
			VotePubkey: a.VotePubkey, NodePubkey: a.NodePubkey, ActivatedStake: a.ActivatedStake, Delinquent: true,
		})
	}
	return accounts, slot, nil
}

// Transaction calls getTransaction. A null result means the transaction has
// not landed (yet).
func (p *http) Transaction(ctx context.Context, sig types.Signature) (*types.Transaction, error) {
	var res transactionResult
	err := p.call(ctx, "getTransaction", &res, sig.String(), map[string]interface{}{
		"encoding":                       "base64",
		"commitment":                     p.commitment,
		"maxSupportedTransactionVersion": 0,
	})
	if err != nil {
		if errors.Is(err, rpctypes.ErrNullResult) {
			return nil, provider.ErrTransactionNotFound
		}
		return nil, err
	}
	raw, err := decodeEncodedTx(res.Transaction)
	if err != nil {
		return nil, provider.ErrBadResponse{Reason: err}
	}
	first, err := types.FirstSignature(raw)
	if err != nil {
		return nil, provider.ErrBadResponse{Reason: err}
	}
	if first != sig {
		return nil, provider.ErrBadResponse{Reason: fmt.Errorf("asked for %v, got %v", sig, first)}
	}
	return &types.Transaction{Signature: sig, Slot: res.Slot, Raw: raw}, nil
}

// SendTransaction calls sendTransaction.
func (p *http) SendTransaction(ctx context.Context, raw []byte) (types.Signature, error) {
	var sigStr string
	err := p.call(ctx, "sendTransaction", &sigStr, base64.StdEncoding.EncodeToString(raw), map[string]interface{}{
		"encoding": "base64",
	})
	if err != nil {
		return types.Signature{}, err
	}
	sig, err := types.SignatureFromBase58(sigStr)
	if err != nil {
		return types.Signature{}, provider.ErrBadResponse{Reason: err}
	}
	return sig, nil
}

// LatestBlockhash calls getLatestBlockhash.
func (p *http) LatestBlockhash(ctx context.Context) (types.Hash, error) {
	var res latestBlockhashResult
	if err := p.call(ctx, "getLatestBlockhash", &res, map[string]interface{}{
		"commitment": p.commitment,
	}); err != nil {
		return types.Hash{}, err
	}
	return res.Value.Blockhash, nil
}

// call performs a JSON-RPC request, retrying transport failures with
// exponential backoff. RPC level errors are not retried.
func (p *http) call(ctx context.Context, method string, result interface{}, params ...interface{}) error {
	id := atomic.AddUint64(&p.nextID, 1)
	req, err := rpctypes.ParamsToRequest(rpctypes.JSONRPCIntID(id), method, params...)
	if err != nil {
		return fmt.Errorf("%s: encoding request: %w", method, err)
	}

	var lastErr error
	for attempt := 1; attempt <= p.maxRetryAttempts; attempt++ {
		if attempt > 1 {
			timer := time.NewTimer(backoffTimeout(p.backoffBase, uint16(attempt-1)))
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		resp, err := p.client.R().SetContext(ctx).SetBody(req).Post("")
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			continue
		}
		if resp.StatusCode() >= nethttp.StatusInternalServerError || resp.StatusCode() == nethttp.StatusTooManyRequests {
			lastErr = fmt.Errorf("status %s", resp.Status())
			continue
		}
		if resp.IsError() {
			return provider.ErrBadResponse{Reason: fmt.Errorf("%s: status %s", method, resp.Status())}
		}

		var rpcResp rpctypes.RPCResponse
		if err := json.Unmarshal(resp.Body(), &rpcResp); err != nil {
			return provider.ErrBadResponse{Reason: fmt.Errorf("%s: %w", method, err)}
		}
		err = rpcResp.DecodeResult(result)
		var rpcErr *rpctypes.RPCError
		switch {
		case err == nil, errors.Is(err, rpctypes.ErrNullResult):
			return err
		case errors.As(err, &rpcErr):
			return mapRPCError(method, rpcErr)
		default:
			return provider.ErrBadResponse{Reason: fmt.Errorf("%s: %w", method, err)}
		}
	}
	return fmt.Errorf("%w: %s failed after %d attempts: %v", provider.ErrNoResponse, method, p.maxRetryAttempts, lastErr)
}

func mapRPCError(method string, rpcErr *rpctypes.RPCError) error {
	switch rpcErr.Code {
	case rpctypes.CodeSlotSkipped, rpctypes.CodeLongTermStorageSlotSkipped:
		return fmt.Errorf("%s: %w", method, provider.ErrSlotSkipped)
	case rpctypes.CodeBlockNotAvailable, rpctypes.CodeBlockCleanedUp:
		return fmt.Errorf("%s: %w", method, provider.ErrBlockNotFound)
	case rpctypes.CodeTransactionHistoryNotAvailable:
		return fmt.Errorf("%s: %w", method, provider.ErrTransactionNotFound)
	default:
		return fmt.Errorf("%s: %w", method, *rpcErr)
	}
}

func decodeEncodedTx(enc []string) ([]byte, error) {
	if len(enc) != 2 {
		return nil, fmt.Errorf("expected [data, encoding], got %d elements", len(enc))
	}
	if enc[1] != "base64" {
		return nil, fmt.Errorf("unsupported encoding %q", enc[1])
	}
	return base64.StdEncoding.DecodeString(enc[0])
}

// exponential backoff (with jitter)
// base 0.5s: 0.5s -> 2s -> 4.5s -> 8s -> 12.5s with up to 0.5s variation
func backoffTimeout(base time.Duration, attempt uint16) time.Duration {
	if base <= 0 {
		return 0
	}
	// nolint:gosec // G404: Use of weak random number generator
	return base*time.Duration(attempt)*time.Duration(attempt) + time.Duration(rand.Int63n(int64(base)))
}
