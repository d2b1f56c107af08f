package light

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	dbm "github.com/tendermint/tm-db"

	"github.com/lightvote/lightvote/libs/log"
	lvmath "github.com/lightvote/lightvote/libs/math"
	"github.com/lightvote/lightvote/light/provider"
	"github.com/lightvote/lightvote/light/store"
	dbs "github.com/lightvote/lightvote/light/store/db"
	"github.com/lightvote/lightvote/types"
	"github.com/lightvote/lightvote/vote"
)

const (
	defaultSlotCount      = 40
	defaultMaxConcurrency = 8
	defaultPollInterval   = 500 * time.Millisecond
	defaultPruningSize    = 1000
)

// Option sets a parameter for the light client.
type Option func(*Client)

// Logger option can be used to set a logger for the client.
func Logger(l log.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// Threshold sets the fraction of total stake that must vote for a bank hash
// before it is considered final. Must be in (1/2, 1]. Default: 2/3.
func Threshold(f lvmath.Fraction) Option {
	return func(c *Client) {
		c.threshold = f
	}
}

// SlotCount sets how many slots after the target slot are scanned for votes.
// Default: 40.
func SlotCount(n int) Option {
	return func(c *Client) {
		c.slotCount = n
	}
}

// MaxConcurrency bounds the number of block fetches in flight. Default: 8.
func MaxConcurrency(n int) Option {
	return func(c *Client) {
		c.maxConcurrency = n
	}
}

// PollInterval sets how long to wait before asking again for a transaction
// that has not landed or a block that has not been produced yet.
// Default: 500ms.
func PollInterval(d time.Duration) Option {
	return func(c *Client) {
		c.pollInterval = d
	}
}

// SkipHeaderCheck disables the PoH and bank hash recomputation of the header
// the transaction landed in. The inclusion proof is still checked.
func SkipHeaderCheck() Option {
	return func(c *Client) {
		c.skipHeaderCheck = true
	}
}

// DecoderOptions are passed to the vote decoder.
func DecoderOptions(opts ...vote.DecoderOption) Option {
	return func(c *Client) {
		c.decoderOptions = append(c.decoderOptions, opts...)
	}
}

// WithMetrics sets the metrics the client reports to. Default: NopMetrics.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// OnSlotScanned registers fn to be called, in slot order, every time a slot
// has been folded into the tally.
func OnSlotScanned(fn func(types.Slot)) Option {
	return func(c *Client) {
		c.onSlotScanned = fn
	}
}

// HeaderStore sets the registry used to detect two headers for one slot.
// Default: an in-memory store.
func HeaderStore(s store.Store) Option {
	return func(c *Client) {
		c.headerStore = s
	}
}

// PruningSize sets the maximum number of headers kept in the header store.
// A pruning size of 0 disables pruning. Default: 1000.
func PruningSize(n uint16) Option {
	return func(c *Client) {
		c.pruningSize = n
	}
}

// Client verifies that transactions landed in a slot and that the slot's
// bank hash was voted on by a supermajority of stake. It trusts nothing the
// primary provider sends: headers are recomputed, proofs are folded and
// cross-checked against witnesses, and votes are decoded from raw blocks.
//
// A Client holds no per-run state and can serve concurrent runs.
type Client struct {
	primary   provider.Provider
	witnesses []provider.Provider

	threshold       lvmath.Fraction
	slotCount       int
	maxConcurrency  int
	pollInterval    time.Duration
	skipHeaderCheck bool
	decoderOptions  []vote.DecoderOption
	decoder         *vote.Decoder

	// Registry of verified headers, used to catch a primary serving another
	// bank hash for a slot verified earlier. Rejected headers never enter it.
	headerStore store.Store
	pruningSize uint16

	onSlotScanned func(types.Slot)

	metrics *Metrics
	logger  log.Logger
}

// NewClient returns a new light client that fetches everything from primary
// and cross-checks headers with witnesses. Witnesses are optional; without
// them forks are only caught when two different headers reach this client.
func NewClient(primary provider.Provider, witnesses []provider.Provider, options ...Option) (*Client, error) {
	if primary == nil {
		return nil, errors.New("nil primary provider")
	}

	c := &Client{
		primary:        primary,
		witnesses:      witnesses,
		threshold:      vote.DefaultThreshold,
		slotCount:      defaultSlotCount,
		maxConcurrency: defaultMaxConcurrency,
		pollInterval:   defaultPollInterval,
		pruningSize:    defaultPruningSize,
		metrics:        NopMetrics(),
		logger:         log.NewNopLogger(),
	}

	for _, o := range options {
		o(c)
	}

	for i, w := range c.witnesses {
		if w == nil {
			return nil, fmt.Errorf("witness #%d is nil", i)
		}
	}
	if err := vote.ValidateThreshold(c.threshold); err != nil {
		return nil, err
	}
	if c.slotCount < 1 {
		return nil, fmt.Errorf("slot count must be positive, got %d", c.slotCount)
	}
	if c.maxConcurrency < 1 {
		return nil, fmt.Errorf("max concurrency must be positive, got %d", c.maxConcurrency)
	}
	if c.pollInterval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %v", c.pollInterval)
	}
	if c.headerStore == nil {
		c.headerStore = dbs.New(dbm.NewMemDB())
	}

	opts := append([]vote.DecoderOption{vote.WithLogger(c.logger)}, c.decoderOptions...)
	c.decoder = vote.NewDecoder(opts...)

	return c, nil
}

// Primary returns the primary provider.
func (c *Client) Primary() provider.Provider {
	return c.primary
}

// Witnesses returns the witness providers.
func (c *Client) Witnesses() []provider.Provider {
	return c.witnesses
}

// Threshold returns the finality threshold.
func (c *Client) Threshold() lvmath.Fraction {
	return c.threshold
}

// SlotCount returns the number of slots a scan covers.
func (c *Client) SlotCount() int {
	return c.slotCount
}

// VerifyTransfer submits raw to the primary and verifies the transaction.
// See VerifyTransaction.
func (c *Client) VerifyTransfer(ctx context.Context, raw []byte) (*types.VerificationResult, error) {
	logger := c.logger.With("run", uuid.NewString())

	sig, err := c.primary.SendTransaction(ctx, raw)
	if err != nil {
		return nil, c.rpcError("SendTransaction", err)
	}
	logger.Info("Submitted transaction", "signature", sig)

	return c.verifyTransaction(ctx, sig, logger.With("signature", sig))
}

// VerifyTransaction waits for the transaction identified by sig to land,
// checks that it is included in its slot's bank hash and then scans the
// following slots for votes on that bank hash.
//
// A denied inclusion or a bank hash that did not reach the threshold are
// results, not errors. Errors are returned for provider failures (ErrRPC)
// and for forks (ErrConflictingHeaders).
func (c *Client) VerifyTransaction(ctx context.Context, sig types.Signature) (*types.VerificationResult, error) {
	logger := c.logger.With("run", uuid.NewString(), "signature", sig)
	return c.verifyTransaction(ctx, sig, logger)
}

func (c *Client) verifyTransaction(ctx context.Context, sig types.Signature,
	logger log.Logger) (*types.VerificationResult, error) {

	tx, err := c.awaitTransaction(ctx, sig, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Transaction landed", "slot", tx.Slot)

	return c.verifyLanded(ctx, tx, logger)
}

// ScanVotes scans the slots following slot for votes on bankHash. Nothing
// is checked about bankHash itself.
func (c *Client) ScanVotes(ctx context.Context, slot types.Slot,
	bankHash types.BankHash) (*types.VerificationResult, error) {

	logger := c.logger.With("run", uuid.NewString(), "slot", slot, "bankHash", bankHash)
	result := &types.VerificationResult{
		Slot:     slot,
		BankHash: bankHash,
		Status:   types.StatusStarted,
	}
	return c.scan(ctx, result, logger)
}

// awaitTransaction polls the primary until the transaction is reported.
func (c *Client) awaitTransaction(ctx context.Context, sig types.Signature,
	logger log.Logger) (*types.Transaction, error) {

	for attempt := 1; ; attempt++ {
		tx, err := c.primary.Transaction(ctx, sig)
		switch {
		case err == nil:
			if err := tx.ValidateBasic(); err != nil {
				return nil, c.rpcError("Transaction", provider.ErrBadResponse{Reason: err})
			}
			if tx.Signature != sig {
				return nil, c.rpcError("Transaction", provider.ErrBadResponse{
					Reason: fmt.Errorf("asked for %v, got %v", sig, tx.Signature),
				})
			}
			return tx, nil
		case errors.Is(err, provider.ErrTransactionNotFound):
			logger.Debug("Transaction has not landed yet", "attempt", attempt)
		default:
			return nil, c.rpcError("Transaction", err)
		}

		timer := time.NewTimer(c.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, c.rpcError("Transaction", ctx.Err())
		case <-timer.C:
		}
	}
}

// verifyLanded runs the inclusion half of a verification and, if the
// inclusion is confirmed, the vote scan.
func (c *Client) verifyLanded(ctx context.Context, tx *types.Transaction,
	logger log.Logger) (*types.VerificationResult, error) {

	sig := tx.Signature
	result := &types.VerificationResult{
		Slot:      tx.Slot,
		Signature: &sig,
		Status:    types.StatusStarted,
	}

	h, err := c.primary.BlockHeader(ctx, tx.Slot)
	if err != nil {
		return nil, c.rpcError("BlockHeader", err)
	}
	if h.Slot != tx.Slot {
		return nil, c.rpcError("BlockHeader", provider.ErrBadResponse{
			Reason: fmt.Errorf("asked for slot %d, got %d", tx.Slot, h.Slot),
		})
	}
	result.BankHash = h.BankHash

	if err := c.detectDivergence(ctx, h); err != nil {
		return nil, err
	}
	if err := c.checkRecordedHeader(h); err != nil {
		return nil, err
	}

	proof, err := c.primary.TransactionProof(ctx, tx.Signature, tx.Slot)
	switch {
	case err == nil:
	case provider.IsNotFound(err):
		return c.deny(result, ErrInvalidProof{err}, logger), nil
	default:
		return nil, c.rpcError("TransactionProof", err)
	}

	if !c.skipHeaderCheck {
		if err := VerifyHeader(h, tx.Signature); err != nil {
			return c.deny(result, err, logger), nil
		}
	}
	if err := VerifyInclusionWithReason(*tx, proof, h.BankHash); err != nil {
		return c.deny(result, err, logger), nil
	}

	// only headers that passed every check are remembered
	if err := c.recordHeader(h, logger); err != nil {
		return nil, err
	}
	result.InclusionConfirmed = true
	logger.Info("Inclusion confirmed", "slot", h.Slot, "bankHash", h.BankHash)

	return c.scan(ctx, result, logger)
}

func (c *Client) deny(result *types.VerificationResult, reason error, logger log.Logger) *types.VerificationResult {
	result.Status = types.StatusInclusionDenied
	result.Reason = reason.Error()
	c.metrics.Verifications.With("status", result.Status.String()).Add(1)
	logger.Info("Inclusion denied", "slot", result.Slot, "reason", reason)
	return result
}

func (c *Client) rpcError(method string, err error) error {
	c.metrics.RPCErrors.With("method", method).Add(1)
	return ErrRPC{Method: method, Provider: c.primary, Reason: err}
}

// pruneHeaders keeps at most pruningSize headers in the header store.
func (c *Client) pruneHeaders() {
	if c.pruningSize == 0 {
		return
	}
	if err := c.headerStore.Prune(c.pruningSize); err != nil {
		c.logger.Error("Failed to prune header store", "err", err)
	}
}
