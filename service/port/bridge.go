package port

import (
	"context"
	"fmt"

	"linkport/core"
	"linkport/pkg/id"
	"linkport/store/state"

	"github.com/fox-one/pkg/logger"
	"github.com/sirupsen/logrus"
)

// Bridge pull amount of asset from caller into its pool and deliver the mapped
// asset to the recipient on req.DestChain, optionally swapped along req.Path there.
func (s *service) Bridge(ctx context.Context, caller string, req *core.BridgeRequest) (*core.Transfer, error) {
	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		"sender": caller,
		"dest":   req.DestChain,
		"asset":  req.Asset,
	})
	ctx = logger.WithContext(ctx, log)

	sender, ok := core.NormalizeAddress(caller)
	if !ok {
		return nil, fmt.Errorf("sender: %w", core.ErrInvalidAddress)
	}

	asset, ok := core.NormalizeAddress(req.Asset)
	if !ok {
		return nil, fmt.Errorf("asset: %w", core.ErrInvalidAddress)
	}

	recipient := sender
	if req.Recipient != "" {
		if recipient, ok = core.NormalizeAddress(req.Recipient); !ok {
			return nil, fmt.Errorf("recipient: %w", core.ErrInvalidAddress)
		}
	}

	if len(req.MinOut) > 0 && len(req.MinOut) != len(req.Path) {
		return nil, fmt.Errorf("%d min outs for %d hops: %w", len(req.MinOut), len(req.Path), core.ErrInvalidSwapPath)
	}

	path := make([]string, 0, len(req.Path))
	for _, hop := range req.Path {
		hop, ok := core.NormalizeAddress(hop)
		if !ok {
			return nil, fmt.Errorf("path: %w", core.ErrInvalidSwapPath)
		}
		path = append(path, hop)
	}

	var transfer *core.Transfer
	err := s.run(ctx, func(tx *state.Tx, out *outbox) error {
		remote, err := s.ports.FindToken(ctx, tx, asset, req.DestChain)
		if err != nil {
			return err
		}

		if remote == "" {
			return fmt.Errorf("%s on chain %d: %w", asset, req.DestChain, core.ErrTokenNotMapped)
		}

		if err := s.checkPrecision(ctx, tx, asset, req.Amount); err != nil {
			return err
		}

		pool, err := s.pool(ctx, tx, asset)
		if err != nil {
			return err
		}

		if err := s.pools.Collect(ctx, tx, pool, s.cfg.Address, sender, req.Amount); err != nil {
			return err
		}

		n, err := s.ports.NextNonce(ctx, tx)
		if err != nil {
			return err
		}

		transfer = &core.Transfer{
			ID:          id.Derive("bridge", s.cfg.Chain, s.cfg.Address, n),
			SourceChain: s.cfg.Chain,
			DestChain:   req.DestChain,
			Sender:      sender,
			Recipient:   recipient,
			Asset:       asset,
			Remote:      remote,
			Amount:      req.Amount,
			Path:        path,
			MinOut:      req.MinOut,
			Status:      core.TransferStatusSent,
		}

		msg, err := s.emit(ctx, tx, out, req.DestChain, core.BridgePayload{
			TransferID: transfer.ID,
			Sender:     sender,
			Recipient:  recipient,
			Asset:      remote,
			Amount:     req.Amount,
			Path:       path,
			MinOut:     req.MinOut,
		})
		if err != nil {
			return err
		}

		transfer.MessageID = msg.ID
		if err := s.transfers.Save(ctx, tx, transfer); err != nil {
			log.WithError(err).Errorln("transfers.Save")
			return err
		}

		return s.event(ctx, tx, &core.Event{
			Kind:      core.EventBridgeSent,
			Ref:       transfer.ID,
			Account:   sender,
			Asset:     asset,
			Amount:    req.Amount,
			MessageID: msg.ID,
			DestChain: msg.DestChain,
			Receiver:  msg.Receiver,
			Payload:   msg.Payload,
		})
	})

	if err != nil {
		return nil, err
	}

	log.WithField("transfer", transfer.ID).Infoln("bridge sent")
	return transfer, nil
}
