package txb

import (
	"bytes"
	"encoding/binary"
	"fmt"

	sdkmath "cosmossdk.io/math"
	bin "github.com/gagliardetto/binary"
	"lukechampine.com/uint128"
)

// Pure scalar arguments are encoded little-endian fixed-width, the wire
// format the protocol's serializer expects for primitive values.

// EncodeBool encodes a bool pure argument.
func EncodeBool(v bool) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := bin.NewBorshEncoder(buf).WriteBool(v); err != nil {
		return nil, fmt.Errorf("failed to encode bool: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeU32 encodes a u32 pure argument.
func EncodeU32(v uint32) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := bin.NewBorshEncoder(buf).WriteUint32(v, binary.LittleEndian); err != nil {
		return nil, fmt.Errorf("failed to encode u32: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeU64 encodes a u64 pure argument.
func EncodeU64(v uint64) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := bin.NewBorshEncoder(buf).WriteUint64(v, binary.LittleEndian); err != nil {
		return nil, fmt.Errorf("failed to encode u64: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeU128 encodes a u128 pure argument as two little-endian u64 halves.
func EncodeU128(v uint128.Uint128) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)
	if err := enc.WriteUint64(v.Lo, binary.LittleEndian); err != nil {
		return nil, fmt.Errorf("failed to encode u128 low half: %w", err)
	}
	if err := enc.WriteUint64(v.Hi, binary.LittleEndian); err != nil {
		return nil, fmt.Errorf("failed to encode u128 high half: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeIntU128 encodes a non-negative math.Int that fits in 128 bits.
func EncodeIntU128(v sdkmath.Int) ([]byte, error) {
	if v.IsNil() || v.IsNegative() {
		return nil, fmt.Errorf("value %s is not a valid u128", v)
	}
	big := v.BigInt()
	if big.BitLen() > 128 {
		return nil, fmt.Errorf("value %s does not fit in u128", v)
	}
	return EncodeU128(uint128.FromBig(big))
}
