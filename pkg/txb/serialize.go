package txb

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/mr-tron/base58"
)

// Command tags in the serialized stream.
const (
	tagMoveCall   = 0
	tagSplitCoins = 1
	tagMergeCoins = 2
)

// Serialize encodes the input table and command sequence into a
// deterministic byte stream. The layout is length-prefixed throughout so
// the payload round-trips without schema knowledge.
func (t *Transaction) Serialize() ([]byte, error) {
	if t.err != nil {
		return nil, fmt.Errorf("transaction has invalid arguments: %w", t.err)
	}

	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)

	if err := enc.WriteUint16(uint16(len(t.inputs)), binary.LittleEndian); err != nil {
		return nil, fmt.Errorf("failed to encode input count: %w", err)
	}
	for i, in := range t.inputs {
		if err := writeInput(enc, in); err != nil {
			return nil, fmt.Errorf("failed to encode input %d: %w", i, err)
		}
	}

	if err := enc.WriteUint16(uint16(len(t.commands)), binary.LittleEndian); err != nil {
		return nil, fmt.Errorf("failed to encode command count: %w", err)
	}
	for i, c := range t.commands {
		if err := writeCommand(enc, c); err != nil {
			return nil, fmt.Errorf("failed to encode command %d: %w", i, err)
		}
	}

	return buf.Bytes(), nil
}

// Base64 returns the serialized payload base64-encoded, the form handed to
// a signer or dry-run endpoint.
func (t *Transaction) Base64() (string, error) {
	raw, err := t.Serialize()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// Digest returns the base58 sha-256 digest of the serialized payload,
// used for logging and display.
func (t *Transaction) Digest() (string, error) {
	raw, err := t.Serialize()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return base58.Encode(sum[:]), nil
}

func writeInput(enc *bin.Encoder, in Input) error {
	if err := enc.WriteByte(byte(in.Kind)); err != nil {
		return err
	}
	switch in.Kind {
	case InputPure:
		return enc.WriteBytes(in.Pure, true)
	case InputObject, InputSharedObject:
		if err := enc.WriteBytes([]byte(in.ObjectID), true); err != nil {
			return err
		}
		return enc.WriteBool(in.Mutable)
	default:
		return fmt.Errorf("unknown input kind %d", in.Kind)
	}
}

func writeArgument(enc *bin.Encoder, arg Argument) error {
	if err := enc.WriteByte(byte(arg.Kind)); err != nil {
		return err
	}
	return enc.WriteUint16(arg.Index, binary.LittleEndian)
}

func writeArguments(enc *bin.Encoder, args []Argument) error {
	if err := enc.WriteUint16(uint16(len(args)), binary.LittleEndian); err != nil {
		return err
	}
	for _, arg := range args {
		if err := writeArgument(enc, arg); err != nil {
			return err
		}
	}
	return nil
}

func writeCommand(enc *bin.Encoder, c Command) error {
	switch {
	case c.MoveCall != nil:
		if err := enc.WriteByte(tagMoveCall); err != nil {
			return err
		}
		if err := enc.WriteBytes([]byte(c.MoveCall.Target), true); err != nil {
			return err
		}
		if err := enc.WriteUint16(uint16(len(c.MoveCall.TypeArguments)), binary.LittleEndian); err != nil {
			return err
		}
		for _, ta := range c.MoveCall.TypeArguments {
			if err := enc.WriteBytes([]byte(ta), true); err != nil {
				return err
			}
		}
		return writeArguments(enc, c.MoveCall.Arguments)
	case c.SplitCoins != nil:
		if err := enc.WriteByte(tagSplitCoins); err != nil {
			return err
		}
		if err := writeArgument(enc, c.SplitCoins.Coin); err != nil {
			return err
		}
		return writeArguments(enc, c.SplitCoins.Amounts)
	case c.MergeCoins != nil:
		if err := enc.WriteByte(tagMergeCoins); err != nil {
			return err
		}
		if err := writeArgument(enc, c.MergeCoins.Target); err != nil {
			return err
		}
		return writeArguments(enc, c.MergeCoins.Sources)
	default:
		return fmt.Errorf("empty command")
	}
}
