package port

import (
	"context"
	"fmt"
	"time"

	"linkport/core"
	"linkport/pkg/id"
	"linkport/store/state"

	"github.com/fox-one/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Chain   uint64 `json:"chain"`
	Address string `json:"address"`
	// FeeAsset pays the relay fee of every outbound message
	FeeAsset     string `json:"fee_asset"`
	FeeCollector string `json:"fee_collector"`
	// MaxLTV borrow value over collateral value accepted by Loan
	MaxLTV decimal.Decimal `json:"max_ltv"`
	// LiquidationThreshold a delivered loan is liquidatable once
	// collateral value * threshold drops below the outstanding value
	LiquidationThreshold decimal.Decimal `json:"liquidation_threshold"`
	// LockTimeout after which a loan without receipt may be cancelled
	LockTimeout time.Duration `json:"lock_timeout"`
}

type service struct {
	db        *state.DB
	ports     core.IPortStore
	loans     core.ILoanStore
	transfers core.ITransferStore
	messages  core.IMessageStore
	events    core.IEventStore
	ledger    core.ILedger
	factory   core.IPoolFactory
	pools     core.IPoolService
	oracle    core.IPriceOracle
	router    core.ISwapRouter
	transport core.IMessageTransport
	access    core.IAccessPolicy
	cfg       Config
	now       func() time.Time
}

func New(
	db *state.DB,
	ports core.IPortStore,
	loans core.ILoanStore,
	transfers core.ITransferStore,
	messages core.IMessageStore,
	events core.IEventStore,
	ledger core.ILedger,
	factory core.IPoolFactory,
	pools core.IPoolService,
	oracle core.IPriceOracle,
	router core.ISwapRouter,
	transport core.IMessageTransport,
	access core.IAccessPolicy,
	cfg Config,
) core.IPortService {
	if cfg.FeeCollector == "" {
		cfg.FeeCollector = id.Address(cfg.Address, "fee-collector")
	}

	return &service{
		db:        db,
		ports:     ports,
		loans:     loans,
		transfers: transfers,
		messages:  messages,
		events:    events,
		ledger:    ledger,
		factory:   factory,
		pools:     pools,
		oracle:    oracle,
		router:    router,
		transport: transport,
		access:    access,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *service) Chain() uint64 {
	return s.cfg.Chain
}

func (s *service) Address() string {
	return s.cfg.Address
}

// outbox messages created by one transaction, sent once it commits
type outbox []*core.Message

// run fn in one state transaction, then hand its outbound messages to the transport
func (s *service) run(ctx context.Context, fn func(tx *state.Tx, out *outbox) error) error {
	var out outbox
	if err := s.db.Tx(func(tx *state.Tx) error {
		out = out[:0]
		return fn(tx, &out)
	}); err != nil {
		return err
	}

	s.send(ctx, out)
	return nil
}

func (s *service) send(ctx context.Context, out outbox) int {
	var sent int
	for _, msg := range out {
		log := logger.FromContext(ctx).WithFields(logrus.Fields{
			"message": msg.ID,
			"kind":    msg.Kind.String(),
			"dest":    msg.DestChain,
		})

		if err := s.transport.Send(ctx, msg); err != nil {
			log.WithError(err).Errorln("transport.Send")
			continue
		}

		if err := s.db.Tx(func(tx *state.Tx) error {
			stored, err := s.messages.FindOutbound(ctx, tx, msg.ID)
			if err != nil || !stored.Exists() || stored.Status != core.MessageStatusPending {
				return err
			}

			stored.Status = core.MessageStatusSent
			return s.messages.SaveOutbound(ctx, tx, stored)
		}); err != nil {
			log.WithError(err).Errorln("messages.SaveOutbound")
			continue
		}

		sent++
		messagesTotal(s.cfg.Chain, msg.Kind, "sent")
	}

	return sent
}

// emit an outbound message to the port of dest, the relay fee is paid right away
func (s *service) emit(ctx context.Context, tx *state.Tx, out *outbox, dest uint64, p core.Payload) (*core.Message, error) {
	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		"dest": dest,
		"kind": p.Kind().String(),
	})

	receiver, err := s.ports.FindRoute(ctx, tx, dest)
	if err != nil {
		log.WithError(err).Errorln("ports.FindRoute")
		return nil, err
	}

	if receiver == "" {
		return nil, fmt.Errorf("chain %d: %w", dest, core.ErrRouteNotFound)
	}

	payload, err := core.EncodePayload(p)
	if err != nil {
		log.WithError(err).Errorln("EncodePayload")
		return nil, err
	}

	fee, err := s.transport.Fee(ctx, dest, payload)
	if err != nil {
		log.WithError(err).Errorln("transport.Fee")
		return nil, err
	}

	if fee.IsPositive() {
		balance, err := s.ledger.Balance(ctx, tx, s.cfg.FeeAsset, s.cfg.Address)
		if err != nil {
			return nil, err
		}

		if balance.LessThan(fee) {
			return nil, fmt.Errorf("relay fee %s over port balance %s: %w", fee, balance, core.ErrInsufficientFee)
		}

		if err := s.ledger.Transfer(ctx, tx, s.cfg.FeeAsset, s.cfg.Address, s.cfg.FeeCollector, fee); err != nil {
			return nil, err
		}
	}

	nonce, err := s.ports.NextNonce(ctx, tx)
	if err != nil {
		log.WithError(err).Errorln("ports.NextNonce")
		return nil, err
	}

	now := s.now()
	msg := &core.Message{
		ID:          id.MessageID(s.cfg.Chain, s.cfg.Address, nonce),
		Nonce:       nonce,
		SourceChain: s.cfg.Chain,
		Sender:      s.cfg.Address,
		DestChain:   dest,
		Receiver:    receiver,
		Kind:        p.Kind(),
		Payload:     payload,
		FeeAsset:    s.cfg.FeeAsset,
		Fee:         fee,
		Status:      core.MessageStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.messages.SaveOutbound(ctx, tx, msg); err != nil {
		log.WithError(err).Errorln("messages.SaveOutbound")
		return nil, err
	}

	if err := s.event(ctx, tx, &core.Event{
		Kind:      core.EventMessageSent,
		Ref:       msg.ID,
		Asset:     msg.FeeAsset,
		Amount:    fee,
		Memo:      msg.Kind.String(),
		MessageID: msg.ID,
		DestChain: dest,
		Receiver:  receiver,
		Payload:   payload,
	}); err != nil {
		return nil, err
	}

	*out = append(*out, msg)
	return msg, nil
}

func (s *service) event(ctx context.Context, tx *state.Tx, event *core.Event) error {
	event.CreatedAt = s.now()
	if err := s.events.Create(ctx, tx, event); err != nil {
		logger.FromContext(ctx).WithError(err).Errorln("events.Create")
		return err
	}

	return nil
}

func (s *service) Flush(ctx context.Context) (int, error) {
	var out outbox
	if err := s.db.View(func(tx *state.Tx) error {
		msgs, err := s.messages.ListOutbound(ctx, tx, core.MessageStatusPending, 0)
		out = msgs
		return err
	}); err != nil {
		logger.FromContext(ctx).WithError(err).Errorln("messages.ListOutbound")
		return 0, err
	}

	return s.send(ctx, out), nil
}

// GetTokenPrice usd price of asset, the feed first then the manual price
func (s *service) GetTokenPrice(ctx context.Context, asset string) (decimal.Decimal, error) {
	var price decimal.Decimal
	err := s.db.View(func(tx *state.Tx) (err error) {
		price, err = s.price(ctx, tx, asset)
		return
	})

	return price, err
}

func (s *service) price(ctx context.Context, tx *state.Tx, assetID string) (decimal.Decimal, error) {
	asset, err := s.ports.FindAsset(ctx, tx, assetID)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Errorln("ports.FindAsset")
		return decimal.Zero, err
	}

	if asset.Feed != "" && s.oracle != nil {
		answer, decimals, err := s.oracle.Price(ctx, asset.Feed)
		switch {
		case err != nil:
			logger.FromContext(ctx).WithError(err).WithField("feed", asset.Feed).Infoln("oracle.Price, fallback to manual price")
		case answer.IsPositive():
			return answer.Shift(-decimals).Truncate(8), nil
		}
	}

	if asset.Price.IsPositive() {
		return asset.Price, nil
	}

	return decimal.Zero, fmt.Errorf("asset %s: %w", assetID, core.ErrPriceNotFound)
}

func (s *service) QuoteFee(ctx context.Context, dest uint64, p core.Payload) (decimal.Decimal, error) {
	payload, err := core.EncodePayload(p)
	if err != nil {
		return decimal.Zero, err
	}

	return s.transport.Fee(ctx, dest, payload)
}

// checkPrecision amounts fit the pool precision and the decimals of a registered asset
func (s *service) checkPrecision(ctx context.Context, tx *state.Tx, assetID string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return core.ErrInvalidAmount
	}

	if !core.FitsPrecision(amount, core.SharePrecision) {
		return fmt.Errorf("amount %s over %d decimals: %w", amount, core.SharePrecision, core.ErrInvalidPrecision)
	}

	asset, err := s.ports.FindAsset(ctx, tx, assetID)
	if err != nil {
		return err
	}

	if asset.Symbol != "" && !core.FitsPrecision(amount, asset.Decimals) {
		return fmt.Errorf("%s has %d decimals: %w", asset.Symbol, asset.Decimals, core.ErrInvalidPrecision)
	}

	return nil
}

func (s *service) pool(ctx context.Context, tx *state.Tx, asset string) (*core.Pool, error) {
	pool, err := s.factory.GetPool(ctx, tx, asset)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Errorln("factory.GetPool")
		return nil, err
	}

	if !pool.Exists() {
		return nil, fmt.Errorf("asset %s: %w", asset, core.ErrPoolNotFound)
	}

	return pool, nil
}

func normalizeLegs(legs []core.Leg) ([]core.Leg, error) {
	if len(legs) == 0 {
		return nil, core.ErrInvalidLegs
	}

	seen := make(map[string]bool, len(legs))
	out := make([]core.Leg, 0, len(legs))
	for _, leg := range legs {
		asset, ok := core.NormalizeAddress(leg.Asset)
		if !ok {
			return nil, fmt.Errorf("leg asset %q: %w", leg.Asset, core.ErrInvalidAddress)
		}

		if !leg.Amount.IsPositive() {
			return nil, fmt.Errorf("leg %s amount %s: %w", asset, leg.Amount, core.ErrInvalidLegs)
		}

		if seen[asset] {
			return nil, fmt.Errorf("duplicated leg %s: %w", asset, core.ErrInvalidLegs)
		}

		seen[asset] = true
		out = append(out, core.Leg{Asset: asset, Amount: leg.Amount})
	}

	return out, nil
}
