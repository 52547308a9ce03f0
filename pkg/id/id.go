package id

import (
	"crypto/md5"
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	uuidutil "github.com/fox-one/pkg/uuid"
	"github.com/gofrs/uuid"
)

// namespace of every derived id
const namespace = "5f1c0fd4-8c41-4f43-9a51-6c69e6b7e1a2"

// UUIDFromString new uuid string from string
func UUIDFromString(text string) string {
	h := md5.New()
	io.WriteString(h, text)
	sum := h.Sum(nil)
	sum[6] = (sum[6] & 0x0f) | 0x30
	sum[8] = (sum[8] & 0x3f) | 0x80
	return uuid.FromBytesOrNil(sum).String()
}

// Derive deterministic id of the n-th object of kind created by a port
func Derive(kind string, chain uint64, port string, n uint64) string {
	return uuidutil.Modify(namespace, fmt.Sprintf("%s:%d:%s:%d", kind, chain, strings.ToLower(port), n))
}

// MessageID id of the outbound message with nonce
func MessageID(chain uint64, port string, nonce uint64) string {
	return Derive("message", chain, port, nonce)
}

// Address deterministic create2 style address of a contract created by deployer
func Address(deployer string, salt ...string) string {
	s := crypto.Keccak256Hash([]byte(strings.ToLower(strings.Join(salt, ":"))))
	code := crypto.Keccak256([]byte("linkport"))
	return crypto.CreateAddress2(common.HexToAddress(deployer), s, code).Hex()
}

// PoolAddress address of the pool created by factory for asset
func PoolAddress(factory, asset string) string {
	return Address(factory, "pool", asset)
}
