package port

import (
	"context"
	"errors"
	"fmt"

	"linkport/core"
	"linkport/store/state"

	"github.com/fox-one/pkg/logger"
	"github.com/sirupsen/logrus"
)

// errReplay marks a message id that was applied before
var errReplay = errors.New("port: message already applied")

// OnMessage apply an inbound message once. Only the registered port of the
// source chain is trusted; replays and undecodable payloads are not errors.
func (s *service) OnMessage(ctx context.Context, msg *core.Message) error {
	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		"message": msg.ID,
		"source":  msg.SourceChain,
		"sender":  msg.Sender,
	})
	ctx = logger.WithContext(ctx, log)

	var kind core.MessageKind
	err := s.run(ctx, func(tx *state.Tx, out *outbox) error {
		if err := s.authorize(ctx, tx, msg); err != nil {
			return err
		}

		applied, err := s.messages.FindInbound(ctx, tx, msg.ID)
		if err != nil {
			log.WithError(err).Errorln("messages.FindInbound")
			return err
		}

		if applied.Exists() {
			return errReplay
		}

		inbound := *msg
		inbound.Status = core.MessageStatusProcessed

		p, err := core.DecodePayload(msg.Payload)
		if err != nil {
			log.WithError(err).Infoln("invalid payload")
			inbound.Status = core.MessageStatusInvalid
			if err := s.event(ctx, tx, &core.Event{
				Kind:      core.EventMessageInvalid,
				Ref:       msg.ID,
				Memo:      err.Error(),
				MessageID: msg.ID,
			}); err != nil {
				return err
			}
		} else {
			kind = p.Kind()
			inbound.Kind = kind
			if err := s.dispatch(ctx, tx, out, msg, p); err != nil {
				return err
			}
		}

		if err := s.messages.SaveInbound(ctx, tx, &inbound); err != nil {
			log.WithError(err).Errorln("messages.SaveInbound")
			return err
		}

		return nil
	})

	switch {
	case errors.Is(err, errReplay):
		log.Debugln("replay, skip")
		messagesTotal(s.cfg.Chain, msg.Kind, "replayed")
		return nil
	case core.ErrorCategory(err) == core.CategoryAuthorization:
		log.WithError(err).Errorln("rejected")
		messagesTotal(s.cfg.Chain, msg.Kind, "rejected")
		return err
	case err != nil:
		log.WithError(err).Errorln("apply message")
		messagesTotal(s.cfg.Chain, msg.Kind, "failed")
		return err
	case kind == 0:
		messagesTotal(s.cfg.Chain, msg.Kind, "invalid")
		return nil
	default:
		messagesTotal(s.cfg.Chain, kind, "processed")
		return nil
	}
}

func (s *service) authorize(ctx context.Context, tx *state.Tx, msg *core.Message) error {
	if msg.DestChain != s.cfg.Chain || !core.SameAddress(msg.Receiver, s.cfg.Address) {
		return fmt.Errorf("message for %s on chain %d: %w", msg.Receiver, msg.DestChain, core.ErrUnauthorizedSource)
	}

	trusted, err := s.ports.FindRoute(ctx, tx, msg.SourceChain)
	if err != nil {
		return err
	}

	if trusted == "" {
		return fmt.Errorf("no port registered for chain %d: %w", msg.SourceChain, core.ErrUnauthorizedSource)
	}

	if !core.SameAddress(trusted, msg.Sender) {
		return fmt.Errorf("sender %s is not the port %s of chain %d: %w", msg.Sender, trusted, msg.SourceChain, core.ErrUnauthorizedSource)
	}

	return nil
}

func (s *service) dispatch(ctx context.Context, tx *state.Tx, out *outbox, msg *core.Message, p core.Payload) error {
	switch p := p.(type) {
	case core.LoanPayload:
		return s.handleLoan(ctx, tx, out, msg, p)
	case core.RepayPayload:
		return s.handleRepay(ctx, tx, msg, p)
	case core.BridgePayload:
		return s.handleBridge(ctx, tx, out, msg, p)
	case core.ReceiptPayload:
		return s.handleReceipt(ctx, tx, msg, p)
	case core.CancelPayload:
		return s.handleCancel(ctx, tx, out, msg, p)
	default:
		return fmt.Errorf("%T: %w", p, core.ErrUnknownMessageKind)
	}
}

func (s *service) reply(ctx context.Context, tx *state.Tx, out *outbox, dest uint64, of core.MessageKind, ref string, status core.ReceiptStatus) error {
	_, err := s.emit(ctx, tx, out, dest, core.ReceiptPayload{
		Ref:    ref,
		Of:     of,
		Status: status,
	})
	return err
}
