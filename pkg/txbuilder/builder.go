package txbuilder

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/minio/sha256-simd"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/lightsteem/lightsteem-go/pkg/chain"
	"github.com/lightsteem/lightsteem-go/pkg/keys"
	"github.com/lightsteem/lightsteem-go/pkg/log"
	"github.com/lightsteem/lightsteem-go/pkg/sign"
)

const (
	// DefaultExpiration is added to the head block time to form the expiration.
	DefaultExpiration = 30 * time.Second
	// refBlockOffset is the distance between the head block and the reference block number.
	refBlockOffset = 3
	// refBlockFetchOffset is the distance between the head block and the block whose previous id is read.
	refBlockFetchOffset = 2
	// refPrefixOffset is the byte offset of the prefix inside the previous block id.
	refPrefixOffset = 4
	// txIDLen is the number of digest bytes forming a transaction id.
	txIDLen = 20

	tracerName = "github.com/lightsteem/lightsteem-go/pkg/txbuilder"
)

// Stage names reported to observers and metrics.
const (
	StagePrepare   = "prepare"
	StageDigest    = "digest"
	StageSign      = "sign"
	StageBroadcast = "broadcast"
)

// State is the position of a Builder in the prepare, digest, sign, broadcast sequence.
type State int

const (
	StateUnprepared State = iota
	StatePrepared
	StateDigested
	StateSigned
	StateBroadcast
)

func (s State) String() string {
	switch s {
	case StateUnprepared:
		return "unprepared"
	case StatePrepared:
		return "prepared"
	case StateDigested:
		return "digested"
	case StateSigned:
		return "signed"
	case StateBroadcast:
		return "broadcast"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var validate = validator.New()

// Builder assembles, signs and broadcasts one transaction at a time.
// Steps must run in order; Build runs all of them and can be called repeatedly.
type Builder struct {
	transport  Transport
	chains     *chain.Registry
	engine     *sign.Engine
	signers    []sign.Signer
	lg         log.Logger
	tracer     trace.Tracer
	expiration time.Duration
	parallel   bool
	observer   Observer
	metrics    Metrics

	mu      sync.Mutex
	state   State
	tx      *Transaction
	params  chain.Params
	message []byte
	digest  []byte
	txID    string
}

// Option configures a Builder.
type Option func(*Builder)

// WithEngine sets the engine used to sign with private keys.
func WithEngine(engine *sign.Engine) Option {
	return func(b *Builder) {
		if engine != nil {
			b.engine = engine
		}
	}
}

// WithKeys adds default signers for the given keys, signed through the builder's engine.
// Keys are bound when the first signing happens, so option order does not matter.
func WithKeys(ks ...*keys.PrivateKey) Option {
	return func(b *Builder) {
		for _, k := range ks {
			b.signers = append(b.signers, &lazyKeySigner{key: k, b: b})
		}
	}
}

// WithSigners adds default signers.
func WithSigners(signers ...sign.Signer) Option {
	return func(b *Builder) {
		b.signers = append(b.signers, signers...)
	}
}

// WithRegistry sets the registry used to resolve chain references.
func WithRegistry(r *chain.Registry) Option {
	return func(b *Builder) {
		if r != nil {
			b.chains = r
		}
	}
}

func WithLogger(lg log.Logger) Option {
	return func(b *Builder) {
		if lg != nil {
			b.lg = lg
		}
	}
}

// WithExpiration sets the window added to the head block time.
func WithExpiration(d time.Duration) Option {
	return func(b *Builder) {
		if d > 0 {
			b.expiration = d
		}
	}
}

// WithParallelSigning signs with every key concurrently. Signature order still follows signer order.
func WithParallelSigning(enabled bool) Option {
	return func(b *Builder) {
		b.parallel = enabled
	}
}

func WithObserver(o Observer) Option {
	return func(b *Builder) {
		if o != nil {
			b.observer = o
		}
	}
}

func WithMetrics(m Metrics) Option {
	return func(b *Builder) {
		if m != nil {
			b.metrics = m
		}
	}
}

// New returns a Builder using transport for chain data and broadcasting.
func New(transport Transport, opts ...Option) *Builder {
	b := &Builder{
		transport:  transport,
		chains:     chain.Default(),
		engine:     sign.NewEngine(),
		lg:         log.NewNoopLogger(),
		tracer:     otel.Tracer(tracerName),
		expiration: DefaultExpiration,
		observer:   noopObserver{},
		metrics:    noopMetrics{},
	}
	for _, opt := range opts {
		opt(b)
	}
	b.lg = b.lg.WithName("txbuilder")
	return b
}

// State returns the current builder state.
func (b *Builder) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Transaction returns a copy of the transaction under construction, or nil before Prepare.
func (b *Builder) Transaction() *Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.tx == nil {
		return nil
	}
	return b.tx.Clone()
}

// SigningDigest returns a copy of the signing digest, or nil before the digest step.
func (b *Builder) SigningDigest() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.digest...)
}

// TransactionID returns the id of the digested transaction, or "" before the digest step.
func (b *Builder) TransactionID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.txID
}

// Chain returns the chain resolved by the digest step.
func (b *Builder) Chain() chain.Params {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.params
}

// Reset discards any transaction in progress.
func (b *Builder) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reset()
}

func (b *Builder) reset() {
	b.state = StateUnprepared
	b.tx = nil
	b.params = chain.Params{}
	b.message = nil
	b.digest = nil
	b.txID = ""
}

func (b *Builder) expect(states ...State) error {
	for _, s := range states {
		if b.state == s {
			return nil
		}
	}
	return fmt.Errorf("%w: builder is %s", ErrInvalidState, b.state)
}

func (b *Builder) startSpan(ctx context.Context, stage string) (context.Context, trace.Span, log.Logger) {
	ctx, span := b.tracer.Start(ctx, "txbuilder."+stage)
	ctx = log.SetContextLogger(ctx, b.lg)
	return ctx, span, log.FromContext(ctx)
}

func (b *Builder) fail(ctx context.Context, span trace.Span, stage string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	b.observer.TransactionFailed(ctx, Event{TxID: b.txID, Chain: b.params.Name, Stage: stage, Transaction: b.txSnapshot(), Err: err})
	return err
}

func (b *Builder) txSnapshot() *Transaction {
	if b.tx == nil {
		return nil
	}
	return b.tx.Clone()
}

// Prepare fetches the chain head and sets the reference block and expiration fields.
func (b *Builder) Prepare(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	ctx, span, lg := b.startSpan(ctx, StagePrepare)
	defer span.End()
	start := time.Now()

	if err := b.expect(StateUnprepared); err != nil {
		return err
	}

	props, err := b.transport.GetDynamicGlobalProperties(ctx)
	if err != nil {
		return b.fail(ctx, span, StagePrepare, fmt.Errorf("get dynamic global properties: %w", err))
	}
	if props.HeadBlockNumber < refBlockOffset {
		return b.fail(ctx, span, StagePrepare, fmt.Errorf("%w: head block %d is too low", ErrInvalidTransaction, props.HeadBlockNumber))
	}

	refNum := uint16((props.HeadBlockNumber - refBlockOffset) & 0xFFFF)
	block, err := b.transport.GetBlock(ctx, props.HeadBlockNumber-refBlockFetchOffset)
	if err != nil {
		return b.fail(ctx, span, StagePrepare, fmt.Errorf("get block %d: %w", props.HeadBlockNumber-refBlockFetchOffset, err))
	}
	if block == nil {
		return b.fail(ctx, span, StagePrepare, fmt.Errorf("%w: block %d not found", ErrInvalidTransaction, props.HeadBlockNumber-refBlockFetchOffset))
	}

	refPrefix, err := RefBlockPrefix(block.Previous)
	if err != nil {
		return b.fail(ctx, span, StagePrepare, err)
	}

	b.tx = &Transaction{
		RefBlockNum:    refNum,
		RefBlockPrefix: refPrefix,
		Expiration:     Time{props.Time.Add(b.expiration).UTC()},
		Operations:     []Operation{},
		Extensions:     []json.RawMessage{},
		Signatures:     []sign.Signature{},
	}
	b.state = StatePrepared

	span.SetAttributes(
		attribute.Int("ref_block_num", int(refNum)),
		attribute.Int64("ref_block_prefix", int64(refPrefix)),
	)
	lg.Debug("transaction prepared", "head_block", props.HeadBlockNumber, "ref_block_num", refNum, "ref_block_prefix", refPrefix, "expiration", b.tx.Expiration.String())
	b.metrics.StageCompleted(StagePrepare, time.Since(start))
	return nil
}

// RefBlockPrefix reads the little-endian uint32 at byte offset 4 of a hex block id.
func RefBlockPrefix(blockID string) (uint32, error) {
	raw, err := hex.DecodeString(blockID)
	if err != nil {
		return 0, fmt.Errorf("%w: block id '%s': %w", ErrInvalidTransaction, blockID, err)
	}
	if len(raw) < refPrefixOffset+4 {
		return 0, fmt.Errorf("%w: block id '%s' is too short", ErrInvalidTransaction, blockID)
	}
	return binary.LittleEndian.Uint32(raw[refPrefixOffset:]), nil
}

// SetOperations replaces the operation list of a prepared transaction.
func (b *Builder) SetOperations(ops ...Operation) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.expect(StatePrepared); err != nil {
		return err
	}
	for i, op := range ops {
		if op.Name == "" {
			return fmt.Errorf("%w: operation %d has no name", ErrInvalidTransaction, i)
		}
	}
	b.tx.Operations = append([]Operation(nil), ops...)
	return nil
}

// Digest serializes the transaction through the transport and derives the signing digest for
// the referenced chain: SHA-256(chain id || serialization without its trailing signature count).
func (b *Builder) Digest(ctx context.Context, chainRef any) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	ctx, span, lg := b.startSpan(ctx, StageDigest)
	defer span.End()
	start := time.Now()

	if err := b.expect(StatePrepared); err != nil {
		return err
	}
	if err := validate.Struct(b.tx); err != nil {
		return b.fail(ctx, span, StageDigest, fmt.Errorf("%w: %w", ErrInvalidTransaction, err))
	}

	params, err := b.chains.Resolve(chainRef)
	if err != nil {
		return b.fail(ctx, span, StageDigest, err)
	}
	chainID, err := params.ChainIDBytes()
	if err != nil {
		return b.fail(ctx, span, StageDigest, err)
	}

	txHex, err := b.transport.GetTransactionHex(ctx, b.tx)
	if err != nil {
		return b.fail(ctx, span, StageDigest, fmt.Errorf("get transaction hex: %w", err))
	}
	message, digest, txID, err := DeriveDigest(chainID, txHex)
	if err != nil {
		return b.fail(ctx, span, StageDigest, err)
	}

	b.params = params
	b.message = message
	b.digest = digest
	b.txID = txID
	b.state = StateDigested

	span.SetAttributes(attribute.String("chain", params.Name), attribute.String("txid", txID))
	lg.Debug("transaction digested", "chain", params.Name, "txid", txID, "digest", hex.EncodeToString(digest))
	b.metrics.StageCompleted(StageDigest, time.Since(start))
	return nil
}

// DeriveDigest computes the signing message, its SHA-256 digest and the transaction id from a
// chain id and the hex serialization of an unsigned transaction. The final byte of the
// serialization is the signature count and must be zero.
func DeriveDigest(chainID []byte, txHex string) (message, digest []byte, txID string, err error) {
	raw, err := hex.DecodeString(txHex)
	if err != nil {
		return nil, nil, "", fmt.Errorf("%w: transaction hex: %w", ErrInvalidTransaction, err)
	}
	if len(raw) == 0 {
		return nil, nil, "", fmt.Errorf("%w: empty serialization", ErrInvalidTransaction)
	}
	if raw[len(raw)-1] != 0 {
		return nil, nil, "", fmt.Errorf("%w: serialization already carries %d signatures", ErrInvalidTransaction, raw[len(raw)-1])
	}
	body := raw[:len(raw)-1]

	message = make([]byte, 0, len(chainID)+len(body))
	message = append(message, chainID...)
	message = append(message, body...)
	sum := sha256.Sum256(message)

	idSum := sha256.Sum256(body)
	return message, sum[:], hex.EncodeToString(idSum[:txIDLen]), nil
}

// Sign signs the digest with each signer in order, or with the default signers when none are given.
// Either every signer succeeds and the signatures are attached, or nothing changes.
func (b *Builder) Sign(ctx context.Context, signers ...sign.Signer) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	ctx, span, lg := b.startSpan(ctx, StageSign)
	defer span.End()
	start := time.Now()

	if err := b.expect(StateDigested); err != nil {
		return err
	}
	if len(signers) == 0 {
		signers = b.signers
	}
	if len(signers) == 0 {
		return b.fail(ctx, span, StageSign, ErrNoKeys)
	}

	var (
		sigs []sign.Signature
		err  error
	)
	if b.parallel && len(signers) > 1 {
		sigs, err = b.signParallel(signers)
	} else {
		sigs, err = b.signSerial(signers)
	}
	if err != nil {
		return b.fail(ctx, span, StageSign, err)
	}

	b.tx.Signatures = sigs
	b.state = StateSigned

	span.SetAttributes(attribute.Int("signatures", len(sigs)))
	lg.Info("transaction signed", "txid", b.txID, "chain", b.params.Name, "signatures", len(sigs))
	b.observer.TransactionSigned(ctx, Event{TxID: b.txID, Chain: b.params.Name, Stage: StageSign, Transaction: b.tx.Clone()})
	b.metrics.StageCompleted(StageSign, time.Since(start))
	return nil
}

// SignWithKeys signs with private keys through the builder's engine. With no keys it behaves like Sign.
func (b *Builder) SignWithKeys(ctx context.Context, ks ...*keys.PrivateKey) error {
	signers := make([]sign.Signer, len(ks))
	for i, k := range ks {
		signers[i] = b.engine.Signer(k)
	}
	return b.Sign(ctx, signers...)
}

func (b *Builder) signSerial(signers []sign.Signer) ([]sign.Signature, error) {
	sigs := make([]sign.Signature, len(signers))
	for i, s := range signers {
		sig, err := s.Sign(append([]byte(nil), b.digest...))
		if err != nil {
			return nil, fmt.Errorf("signer %d (%s): %w", i, s.PublicKey(), err)
		}
		sigs[i] = sig
	}
	return sigs, nil
}

// signParallel gives every signer its own digest copy; results are stored by index.
func (b *Builder) signParallel(signers []sign.Signer) ([]sign.Signature, error) {
	sigs := make([]sign.Signature, len(signers))
	var g errgroup.Group
	for i, s := range signers {
		i, s := i, s
		digest := append([]byte(nil), b.digest...)
		g.Go(func() error {
			sig, err := s.Sign(digest)
			if err != nil {
				return fmt.Errorf("signer %d (%s): %w", i, s.PublicKey(), err)
			}
			sigs[i] = sig
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sigs, nil
}

// Broadcast submits the signed transaction and returns the node response.
func (b *Builder) Broadcast(ctx context.Context) (json.RawMessage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ctx, span, lg := b.startSpan(ctx, StageBroadcast)
	defer span.End()
	start := time.Now()

	if err := b.expect(StateSigned); err != nil {
		return nil, err
	}

	result, err := b.transport.BroadcastTransaction(ctx, b.tx)
	if err != nil {
		b.metrics.BroadcastCompleted(false)
		return nil, b.fail(ctx, span, StageBroadcast, fmt.Errorf("broadcast transaction: %w", err))
	}
	b.state = StateBroadcast

	lg.Info("transaction broadcast", "txid", b.txID, "chain", b.params.Name)
	b.observer.TransactionBroadcast(ctx, Event{TxID: b.txID, Chain: b.params.Name, Stage: StageBroadcast, Transaction: b.tx.Clone(), Result: result})
	b.metrics.BroadcastCompleted(true)
	b.metrics.StageCompleted(StageBroadcast, time.Since(start))
	return result, nil
}

// Build runs every step for ops on chainRef with the default signers. With dryRun the signed
// transaction is returned without broadcasting; otherwise the node response is returned too.
func (b *Builder) Build(ctx context.Context, ops []Operation, chainRef any, dryRun bool) (*Transaction, json.RawMessage, error) {
	b.Reset()

	if err := b.Prepare(ctx); err != nil {
		return nil, nil, err
	}
	if err := b.SetOperations(ops...); err != nil {
		return nil, nil, err
	}
	if err := b.Digest(ctx, chainRef); err != nil {
		return nil, nil, err
	}
	if err := b.Sign(ctx); err != nil {
		return nil, nil, err
	}
	if dryRun {
		return b.Transaction(), nil, nil
	}

	result, err := b.Broadcast(ctx)
	if err != nil {
		return nil, nil, err
	}
	return b.Transaction(), result, nil
}

// lazyKeySigner binds a key to the builder's engine at signing time.
type lazyKeySigner struct {
	key *keys.PrivateKey
	b   *Builder
}

func (s *lazyKeySigner) PublicKey() *keys.PublicKey { return s.key.PublicKey() }

func (s *lazyKeySigner) Sign(digest []byte) (sign.Signature, error) {
	return s.b.engine.Sign(s.key, digest)
}
