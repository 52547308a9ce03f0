package core

import (
	"testing"

	"linkport/pkg/mtg"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadCodec(t *testing.T) {
	d := decimal.RequireFromString

	for _, p := range []Payload{
		LoanPayload{
			LoanID:           "loan-1",
			Borrower:         "0xa11ce",
			CollateralAsset:  "weth",
			CollateralAmount: d("10.5"),
			Legs: []Leg{
				{Asset: "usdt", Amount: d("1000")},
				{Asset: "dai", Amount: d("0.00000001")},
			},
		},
		LoanPayload{LoanID: "loan-2", Borrower: "0xa11ce", CollateralAsset: "weth", CollateralAmount: d("1")},
		RepayPayload{LoanID: "loan-1", Repayer: "0xb0b", Legs: []Leg{{Asset: "usdt", Amount: d("250")}}},
		BridgePayload{
			TransferID: "transfer-1",
			Sender:     "0xa11ce",
			Recipient:  "0xb0b",
			Asset:      "usdt",
			Amount:     d("99.9"),
			Path:       []string{"usdt", "weth"},
			MinOut:     []decimal.Decimal{d("0.04")},
		},
		BridgePayload{TransferID: "transfer-2", Sender: "0xa11ce", Recipient: "0xa11ce", Asset: "usdt", Amount: d("1")},
		ReceiptPayload{Ref: "loan-1", Of: MessageKindLoan, Status: ReceiptRejected},
		CancelPayload{LoanID: "loan-1"},
	} {
		t.Run(p.Kind().String(), func(t *testing.T) {
			data, err := EncodePayload(p)
			require.Nil(t, err)

			decoded, err := DecodePayload(data)
			require.Nil(t, err)
			assert.IsType(t, p, decoded)
			assert.Equal(t, p.Kind(), decoded.Kind())

			again, err := EncodePayload(decoded)
			require.Nil(t, err)
			assert.Equal(t, data, again)
		})
	}

	t.Run("fields", func(t *testing.T) {
		data, err := EncodePayload(BridgePayload{
			TransferID: "transfer-1",
			Asset:      "usdt",
			Amount:     d("99.9"),
			Path:       []string{"usdt", "weth"},
			MinOut:     []decimal.Decimal{d("0.04")},
		})
		require.Nil(t, err)

		p, err := DecodePayload(data)
		require.Nil(t, err)
		bridge := p.(BridgePayload)
		assert.Equal(t, "transfer-1", bridge.TransferID)
		assert.Equal(t, "99.9", bridge.Amount.String())
		assert.Equal(t, []string{"usdt", "weth"}, bridge.Path)
		require.Len(t, bridge.MinOut, 1)
		assert.Equal(t, "0.04", bridge.MinOut[0].String())

		data, err = EncodePayload(ReceiptPayload{Ref: "loan-1", Of: MessageKindRepay, Status: ReceiptDelivered})
		require.Nil(t, err)

		p, err = DecodePayload(data)
		require.Nil(t, err)
		assert.Equal(t, ReceiptPayload{Ref: "loan-1", Of: MessageKindRepay, Status: ReceiptDelivered}, p)
	})
}

func TestDecodePayloadRejects(t *testing.T) {
	cancel, err := EncodePayload(CancelPayload{LoanID: "loan-1"})
	require.Nil(t, err)

	body, err := mtg.Encode("loan-1")
	require.Nil(t, err)

	unknown, err := mtg.Encode(payloadVersion, int8(9))
	require.Nil(t, err)

	version, err := mtg.Encode(payloadVersion+1, int8(MessageKindCancel))
	require.Nil(t, err)

	for _, c := range []struct {
		name string
		data []byte
		err  ErrorCode
	}{
		{"trailing bytes", append(append([]byte{}, cancel...), 0), ErrInvalidPayload},
		{"unknown kind", append(unknown, body...), ErrUnknownMessageKind},
		{"version", append(version, body...), ErrInvalidPayload},
		{"truncated", cancel[:len(cancel)-1], ErrInvalidPayload},
		{"empty", nil, ErrInvalidPayload},
	} {
		t.Run(c.name, func(t *testing.T) {
			_, err := DecodePayload(c.data)
			assert.ErrorIs(t, err, c.err)
		})
	}
}
