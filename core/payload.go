package core

import (
	"errors"
	"fmt"

	"linkport/pkg/mtg"

	"github.com/shopspring/decimal"
)

// MessageKind operation tag of a payload
type MessageKind int8

const (
	_ MessageKind = iota
	MessageKindLoan
	MessageKindRepay
	MessageKindBridge
	MessageKindReceipt
	MessageKindCancel
)

func (k MessageKind) String() string {
	switch k {
	case MessageKindLoan:
		return "LOAN"
	case MessageKindRepay:
		return "REPAY"
	case MessageKindBridge:
		return "BRIDGE"
	case MessageKindReceipt:
		return "RECEIPT"
	case MessageKindCancel:
		return "CANCEL"
	default:
		return "UNKNOWN"
	}
}

// ReceiptStatus outcome reported back to the origin
type ReceiptStatus int8

const (
	_ ReceiptStatus = iota
	ReceiptDelivered
	ReceiptRejected
	ReceiptCancelled
)

func (s ReceiptStatus) String() string {
	switch s {
	case ReceiptDelivered:
		return "Delivered"
	case ReceiptRejected:
		return "Rejected"
	case ReceiptCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Leg one (asset, amount) pair
type Leg struct {
	Asset  string          `json:"asset"`
	Amount decimal.Decimal `json:"amount"`
}

// Payload tagged message body
type Payload interface {
	Kind() MessageKind
}

type (
	LoanPayload struct {
		LoanID           string
		Borrower         string
		CollateralAsset  string
		CollateralAmount decimal.Decimal
		// Legs are in destination assets
		Legs []Leg
	}

	RepayPayload struct {
		LoanID  string
		Repayer string
		// Legs are in origin assets
		Legs []Leg
	}

	BridgePayload struct {
		TransferID string
		Sender     string
		Recipient  string
		// Asset is the destination asset
		Asset  string
		Amount decimal.Decimal
		Path   []string
		MinOut []decimal.Decimal
	}

	ReceiptPayload struct {
		Ref    string
		Of     MessageKind
		Status ReceiptStatus
	}

	CancelPayload struct {
		LoanID string
	}
)

func (LoanPayload) Kind() MessageKind    { return MessageKindLoan }
func (RepayPayload) Kind() MessageKind   { return MessageKindRepay }
func (BridgePayload) Kind() MessageKind  { return MessageKindBridge }
func (ReceiptPayload) Kind() MessageKind { return MessageKindReceipt }
func (CancelPayload) Kind() MessageKind  { return MessageKindCancel }

const payloadVersion uint8 = 1

// EncodePayload version, tag, then the variant fields
func EncodePayload(p Payload) ([]byte, error) {
	head, err := mtg.Encode(payloadVersion, int8(p.Kind()))
	if err != nil {
		return nil, err
	}

	var values []interface{}
	switch p := p.(type) {
	case LoanPayload:
		values = append(values, p.LoanID, p.Borrower, p.CollateralAsset, p.CollateralAmount)
		values = appendLegs(values, p.Legs)
	case RepayPayload:
		values = append(values, p.LoanID, p.Repayer)
		values = appendLegs(values, p.Legs)
	case BridgePayload:
		values = append(values, p.TransferID, p.Sender, p.Recipient, p.Asset, p.Amount, uint16(len(p.Path)))
		for _, asset := range p.Path {
			values = append(values, asset)
		}
		values = append(values, uint16(len(p.MinOut)))
		for _, out := range p.MinOut {
			values = append(values, out)
		}
	case ReceiptPayload:
		values = append(values, p.Ref, int8(p.Of), int8(p.Status))
	case CancelPayload:
		values = append(values, p.LoanID)
	default:
		return nil, fmt.Errorf("encode %T: %w", p, ErrUnknownMessageKind)
	}

	body, err := mtg.Encode(values...)
	if err != nil {
		return nil, err
	}

	return append(head, body...), nil
}

func appendLegs(values []interface{}, legs []Leg) []interface{} {
	values = append(values, uint16(len(legs)))
	for _, leg := range legs {
		values = append(values, leg.Asset, leg.Amount)
	}
	return values
}

// DecodePayload the inverse of EncodePayload, trailing bytes are rejected
func DecodePayload(data []byte) (Payload, error) {
	var (
		version uint8
		kind    int8
	)

	body, err := mtg.Scan(data, &version, &kind)
	if err != nil {
		return nil, wrapPayloadErr(err)
	}

	if version != payloadVersion {
		return nil, fmt.Errorf("payload version %d: %w", version, ErrInvalidPayload)
	}

	var p Payload
	switch MessageKind(kind) {
	case MessageKindLoan:
		var v LoanPayload
		if body, err = mtg.Scan(body, &v.LoanID, &v.Borrower, &v.CollateralAsset, &v.CollateralAmount); err == nil {
			v.Legs, body, err = scanLegs(body)
		}
		p = v
	case MessageKindRepay:
		var v RepayPayload
		if body, err = mtg.Scan(body, &v.LoanID, &v.Repayer); err == nil {
			v.Legs, body, err = scanLegs(body)
		}
		p = v
	case MessageKindBridge:
		var v BridgePayload
		v, body, err = scanBridge(body)
		p = v
	case MessageKindReceipt:
		var (
			v          ReceiptPayload
			of, status int8
		)
		body, err = mtg.Scan(body, &v.Ref, &of, &status)
		v.Of, v.Status = MessageKind(of), ReceiptStatus(status)
		p = v
	case MessageKindCancel:
		var v CancelPayload
		body, err = mtg.Scan(body, &v.LoanID)
		p = v
	default:
		return nil, fmt.Errorf("kind %d: %w", kind, ErrUnknownMessageKind)
	}

	if err != nil {
		return nil, wrapPayloadErr(err)
	}

	if len(body) > 0 {
		return nil, fmt.Errorf("%d trailing bytes: %w", len(body), ErrInvalidPayload)
	}

	return p, nil
}

func scanLegs(body []byte) ([]Leg, []byte, error) {
	var n uint16
	body, err := mtg.Scan(body, &n)
	if err != nil {
		return nil, body, err
	}

	legs := make([]Leg, n)
	for i := range legs {
		if body, err = mtg.Scan(body, &legs[i].Asset, &legs[i].Amount); err != nil {
			return nil, body, err
		}
	}

	return legs, body, nil
}

func scanBridge(body []byte) (BridgePayload, []byte, error) {
	var (
		v BridgePayload
		n uint16
	)

	body, err := mtg.Scan(body, &v.TransferID, &v.Sender, &v.Recipient, &v.Asset, &v.Amount, &n)
	if err != nil {
		return v, body, err
	}

	for i := 0; i < int(n); i++ {
		var asset string
		if body, err = mtg.Scan(body, &asset); err != nil {
			return v, body, err
		}
		v.Path = append(v.Path, asset)
	}

	if body, err = mtg.Scan(body, &n); err != nil {
		return v, body, err
	}

	for i := 0; i < int(n); i++ {
		var out decimal.Decimal
		if body, err = mtg.Scan(body, &out); err != nil {
			return v, body, err
		}
		v.MinOut = append(v.MinOut, out)
	}

	return v, body, nil
}

func wrapPayloadErr(err error) error {
	if errors.Is(err, ErrInvalidPayload) {
		return err
	}

	return fmt.Errorf("%s: %w", err, ErrInvalidPayload)
}
