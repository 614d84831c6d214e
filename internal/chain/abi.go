package chain

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/sha3"

	"givechain/internal/domain"
)

// Minimal ABI codec for the fixed campaign contract surface. Only the types
// the campaign contract actually returns are supported: uint256, uint8,
// bool, address, string, and dynamic arrays of uint256/bool/address.

const wordSize = 32

// selector returns the 4-byte function selector for a canonical signature.
func selector(signature string) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(signature))
	return h.Sum(nil)[:4]
}

var (
	selCampaignDetails = selector("getCampaignDetails()")
	selMilestones      = selector("getMilestones()")
	selAllDonors       = selector("getAllDonors()")
	selDonors          = selector("donors(address)")
)

// encodeAddressArg appends a left-padded address argument to a calldata
// buffer. The address must be 0x-prefixed 20-byte hex.
func encodeAddressArg(calldata []byte, address string) ([]byte, error) {
	raw, err := parseAddress(address)
	if err != nil {
		return nil, err
	}
	word := make([]byte, wordSize)
	copy(word[wordSize-len(raw):], raw)
	return append(calldata, word...), nil
}

func parseAddress(address string) ([]byte, error) {
	s := strings.TrimPrefix(strings.TrimSpace(address), "0x")
	if len(s) != 40 {
		return nil, fmt.Errorf("%w: address %q", domain.ErrInvalidInput, address)
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: address %q", domain.ErrInvalidInput, address)
	}
	return raw, nil
}

// abiPayload wraps a raw eth_call return value for word-indexed decoding.
type abiPayload struct {
	data []byte
}

func newABIPayload(data []byte) abiPayload {
	return abiPayload{data: data}
}

func (p abiPayload) word(i int) ([]byte, error) {
	off := i * wordSize
	if off < 0 || off+wordSize > len(p.data) {
		return nil, fmt.Errorf("abi: word %d out of range (%d bytes)", i, len(p.data))
	}
	return p.data[off : off+wordSize], nil
}

func (p abiPayload) uintAt(i int) (*big.Int, error) {
	w, err := p.word(i)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(w), nil
}

func (p abiPayload) boolAt(i int) (bool, error) {
	v, err := p.uintAt(i)
	if err != nil {
		return false, err
	}
	return v.Sign() != 0, nil
}

func (p abiPayload) addressAt(i int) (string, error) {
	w, err := p.word(i)
	if err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(w[wordSize-20:]), nil
}

// offsetAt reads a dynamic-data byte offset from the head word at index i
// and converts it to a word index into the payload.
func (p abiPayload) offsetAt(i int) (int, error) {
	v, err := p.uintAt(i)
	if err != nil {
		return 0, err
	}
	if !v.IsInt64() || v.Int64()%wordSize != 0 {
		return 0, fmt.Errorf("abi: invalid offset at word %d", i)
	}
	return int(v.Int64()) / wordSize, nil
}

// stringAt decodes a dynamic string whose offset lives in head word i.
func (p abiPayload) stringAt(i int) (string, error) {
	at, err := p.offsetAt(i)
	if err != nil {
		return "", err
	}
	length, err := p.uintAt(at)
	if err != nil {
		return "", err
	}
	if !length.IsInt64() {
		return "", fmt.Errorf("abi: string length overflow at word %d", at)
	}
	n := int(length.Int64())
	start := (at + 1) * wordSize
	if n < 0 || start+n > len(p.data) {
		return "", fmt.Errorf("abi: string data out of range at word %d", at)
	}
	return string(p.data[start : start+n]), nil
}

// arrayAt decodes a dynamic array whose offset lives in head word i,
// mapping each element word through fn.
func arrayAt[T any](p abiPayload, i int, fn func(word int) (T, error)) ([]T, error) {
	at, err := p.offsetAt(i)
	if err != nil {
		return nil, err
	}
	length, err := p.uintAt(at)
	if err != nil {
		return nil, err
	}
	if !length.IsInt64() || length.Int64() < 0 {
		return nil, fmt.Errorf("abi: array length overflow at word %d", at)
	}
	n := int(length.Int64())
	out := make([]T, 0, n)
	for el := 0; el < n; el++ {
		v, err := fn(at + 1 + el)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
