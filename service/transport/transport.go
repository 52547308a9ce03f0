// Package transport is an in-process message router between the ports of
// several chains. Delivery is at-least-once and in whatever order the caller
// asks for, which is what the relayer and the tests rely on.
package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"linkport/core"

	"github.com/fox-one/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	ErrUnknownChain    = errors.New("transport: unknown chain")
	ErrUnknownSender   = errors.New("transport: sender is not the registered endpoint")
	ErrUnknownReceiver = errors.New("transport: receiver is not the registered endpoint")
	ErrUnknownMessage  = errors.New("transport: unknown message")
)

type Config struct {
	BaseFee decimal.Decimal `json:"base_fee"`
	ByteFee decimal.Decimal `json:"byte_fee"`
}

type endpoint struct {
	address string
	handler core.IMessageHandler
}

type Router struct {
	cfg Config

	mu        sync.Mutex
	endpoints map[uint64]*endpoint
	queue     []*core.Message
	known     map[string]bool
	delivered map[string]*core.Message
	dropped   map[string]error
}

var _ core.IMessageTransport = (*Router)(nil)

func New(cfg Config) *Router {
	return &Router{
		cfg:       cfg,
		endpoints: map[uint64]*endpoint{},
		known:     map[string]bool{},
		delivered: map[string]*core.Message{},
		dropped:   map[string]error{},
	}
}

// Register the port of chain
func (r *Router) Register(chain uint64, address string, handler core.IMessageHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endpoints[chain] = &endpoint{address: address, handler: handler}
}

func (r *Router) Fee(ctx context.Context, dest uint64, payload []byte) (decimal.Decimal, error) {
	r.mu.Lock()
	_, ok := r.endpoints[dest]
	r.mu.Unlock()

	if !ok {
		return decimal.Zero, fmt.Errorf("chain %d: %w", dest, ErrUnknownChain)
	}

	return r.cfg.BaseFee.Add(r.cfg.ByteFee.Mul(decimal.NewFromInt(int64(len(payload))))), nil
}

// Send queue msg for delivery, a message id is accepted once
func (r *Router) Send(ctx context.Context, msg *core.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	src, ok := r.endpoints[msg.SourceChain]
	if !ok || !core.SameAddress(src.address, msg.Sender) {
		return ErrUnknownSender
	}

	dst, ok := r.endpoints[msg.DestChain]
	if !ok {
		return fmt.Errorf("chain %d: %w", msg.DestChain, ErrUnknownChain)
	}

	if !core.SameAddress(dst.address, msg.Receiver) {
		return ErrUnknownReceiver
	}

	if r.known[msg.ID] {
		return nil
	}

	cp := *msg
	r.known[msg.ID] = true
	r.queue = append(r.queue, &cp)
	return nil
}

// Pending messages waiting for delivery, in send order
func (r *Router) Pending() []*core.Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	msgs := make([]*core.Message, len(r.queue))
	for i, msg := range r.queue {
		cp := *msg
		msgs[i] = &cp
	}

	return msgs
}

// Dropped messages rejected by the destination as unauthorized
func (r *Router) Dropped() map[string]error {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]error, len(r.dropped))
	for id, err := range r.dropped {
		out[id] = err
	}
	return out
}

func (r *Router) take(id string) (*core.Message, *endpoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, msg := range r.queue {
		if msg.ID != id {
			continue
		}

		r.queue = append(r.queue[:i], r.queue[i+1:]...)
		dst, ok := r.endpoints[msg.DestChain]
		if !ok {
			r.queue = append(r.queue, msg)
			return nil, nil, ErrUnknownChain
		}

		return msg, dst, nil
	}

	return nil, nil, ErrUnknownMessage
}

// Deliver one queued message. Failed deliveries are queued again unless the
// destination refused the sender.
func (r *Router) Deliver(ctx context.Context, id string) error {
	msg, dst, err := r.take(id)
	if err != nil {
		return err
	}

	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		"message": msg.ID,
		"kind":    msg.Kind.String(),
		"route":   fmt.Sprintf("%d->%d", msg.SourceChain, msg.DestChain),
	})

	cp := *msg
	err = dst.handler.OnMessage(ctx, &cp)

	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case err == nil:
		r.delivered[msg.ID] = msg
		log.Debugln("delivered")
	case core.ErrorCategory(err) == core.CategoryAuthorization:
		r.dropped[msg.ID] = err
		log.WithError(err).Errorln("dropped")
	default:
		r.queue = append(r.queue, msg)
		log.WithError(err).Infoln("delivery failed, will retry")
	}

	return err
}

// DeliverAll attempt every queued message once, returns the number delivered
func (r *Router) DeliverAll(ctx context.Context) (int, error) {
	var ids []string
	for _, msg := range r.Pending() {
		ids = append(ids, msg.ID)
	}

	var (
		n    int
		errs []error
	)

	for _, id := range ids {
		if err := r.Deliver(ctx, id); err != nil {
			errs = append(errs, err)
			continue
		}
		n++
	}

	return n, errors.Join(errs...)
}

// Redeliver hand an already delivered message to its destination again
func (r *Router) Redeliver(ctx context.Context, id string) error {
	r.mu.Lock()
	msg, ok := r.delivered[id]
	var dst *endpoint
	if ok {
		dst = r.endpoints[msg.DestChain]
	}
	r.mu.Unlock()

	if !ok || dst == nil {
		return ErrUnknownMessage
	}

	cp := *msg
	return dst.handler.OnMessage(ctx, &cp)
}

// Drop lose a queued message
func (r *Router) Drop(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, msg := range r.queue {
		if msg.ID == id {
			r.queue = append(r.queue[:i], r.queue[i+1:]...)
			return true
		}
	}

	return false
}
