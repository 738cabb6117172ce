// Package txb builds ordered, serializable on-chain call sequences. A
// Transaction is an append-only list of inputs and commands; commands
// reference inputs, the gas coin, or earlier command results. Nothing here
// signs or executes anything.
package txb

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// InputKind discriminates transaction input variants.
type InputKind int

const (
	// InputPure is an encoded scalar argument.
	InputPure InputKind = iota
	// InputObject is an owned-object reference.
	InputObject
	// InputSharedObject is a shared-object reference.
	InputSharedObject
)

// Input is one entry in the transaction's input table.
type Input struct {
	Kind     InputKind
	ObjectID string
	Mutable  bool
	Pure     []byte
}

// ArgKind discriminates command argument variants.
type ArgKind int

const (
	// ArgInput references an entry in the input table.
	ArgInput ArgKind = iota
	// ArgGasCoin references the transaction's gas coin.
	ArgGasCoin
	// ArgResult references the result of an earlier command.
	ArgResult
)

// Argument is a reference a command consumes.
type Argument struct {
	Kind  ArgKind
	Index uint16
}

// MoveCallCommand invokes package::module::function with type arguments.
type MoveCallCommand struct {
	Target        string
	TypeArguments []string
	Arguments     []Argument
}

// SplitCoinsCommand splits amounts out of a coin, yielding new coins.
type SplitCoinsCommand struct {
	Coin    Argument
	Amounts []Argument
}

// MergeCoinsCommand folds source coins into the target coin.
type MergeCoinsCommand struct {
	Target  Argument
	Sources []Argument
}

// Command is a tagged variant; exactly one field is non-nil.
type Command struct {
	MoveCall   *MoveCallCommand
	SplitCoins *SplitCoinsCommand
	MergeCoins *MergeCoinsCommand
}

// Transaction accumulates inputs and commands in emission order.
type Transaction struct {
	inputs   []Input
	commands []Command
	err      error
}

// New returns an empty transaction.
func New() *Transaction {
	return &Transaction{}
}

func (t *Transaction) addInput(in Input) Argument {
	t.inputs = append(t.inputs, in)
	return Argument{Kind: ArgInput, Index: uint16(len(t.inputs) - 1)}
}

func (t *Transaction) addCommand(c Command) Argument {
	t.commands = append(t.commands, c)
	return Argument{Kind: ArgResult, Index: uint16(len(t.commands) - 1)}
}

// Object adds an owned-object input.
func (t *Transaction) Object(id string) Argument {
	return t.addInput(Input{Kind: InputObject, ObjectID: id, Mutable: true})
}

// SharedObject adds a shared-object input.
func (t *Transaction) SharedObject(id string, mutable bool) Argument {
	return t.addInput(Input{Kind: InputSharedObject, ObjectID: id, Mutable: mutable})
}

// GasCoin references the transaction's gas coin.
func (t *Transaction) GasCoin() Argument {
	return Argument{Kind: ArgGasCoin}
}

// Pure adds a pre-encoded scalar input.
func (t *Transaction) Pure(data []byte) Argument {
	return t.addInput(Input{Kind: InputPure, Pure: data})
}

func (t *Transaction) pure(data []byte, err error) Argument {
	if err != nil && t.err == nil {
		t.err = err
	}
	return t.Pure(data)
}

// PureBool adds an encoded bool input.
func (t *Transaction) PureBool(v bool) Argument {
	b, err := EncodeBool(v)
	return t.pure(b, err)
}

// PureU32 adds an encoded u32 input.
func (t *Transaction) PureU32(v uint32) Argument {
	b, err := EncodeU32(v)
	return t.pure(b, err)
}

// PureI32 adds a tick index encoded as its two's-complement u32 bits.
func (t *Transaction) PureI32(v int32) Argument {
	b, err := EncodeU32(uint32(v))
	return t.pure(b, err)
}

// PureU64 adds an encoded u64 input.
func (t *Transaction) PureU64(v uint64) Argument {
	b, err := EncodeU64(v)
	return t.pure(b, err)
}

// PureIntU64 adds a math.Int encoded as u64, rejecting values that do not fit.
func (t *Transaction) PureIntU64(v sdkmath.Int) Argument {
	if !v.IsUint64() {
		return t.pure(nil, fmt.Errorf("value %s does not fit in u64", v))
	}
	return t.PureU64(v.Uint64())
}

// PureIntU128 adds a math.Int encoded as u128, rejecting values that do not fit.
func (t *Transaction) PureIntU128(v sdkmath.Int) Argument {
	b, err := EncodeIntU128(v)
	return t.pure(b, err)
}

// MoveCall appends a typed call command and returns its result reference.
func (t *Transaction) MoveCall(target string, typeArgs []string, args ...Argument) Argument {
	return t.addCommand(Command{MoveCall: &MoveCallCommand{
		Target:        target,
		TypeArguments: typeArgs,
		Arguments:     args,
	}})
}

// SplitCoins appends a split command and returns the split coin reference.
func (t *Transaction) SplitCoins(coin Argument, amounts ...Argument) Argument {
	return t.addCommand(Command{SplitCoins: &SplitCoinsCommand{
		Coin:    coin,
		Amounts: amounts,
	}})
}

// MergeCoins appends a merge command. Sources keep their input order.
func (t *Transaction) MergeCoins(target Argument, sources ...Argument) {
	t.addCommand(Command{MergeCoins: &MergeCoinsCommand{
		Target:  target,
		Sources: sources,
	}})
}

// Commands returns the command sequence in emission order.
func (t *Transaction) Commands() []Command {
	return t.commands
}

// Inputs returns the input table.
func (t *Transaction) Inputs() []Input {
	return t.inputs
}

// MoveCalls returns only the move-call commands, in emission order.
func (t *Transaction) MoveCalls() []*MoveCallCommand {
	var calls []*MoveCallCommand
	for _, c := range t.commands {
		if c.MoveCall != nil {
			calls = append(calls, c.MoveCall)
		}
	}
	return calls
}

// Err reports the first argument-encoding failure, if any.
func (t *Transaction) Err() error {
	return t.err
}
