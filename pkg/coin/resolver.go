// Package coin decides how a requested on-chain amount is sourced from a
// caller's fungible-asset objects. It is a pure decision layer: plans
// describe merges and splits for the transaction builder to materialize,
// and never depend on actual on-chain balances.
package coin

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"clmmtx/pkg/clmm"
)

// ErrMissingFunding is returned when a non-zero, non-native amount has no
// candidate objects to draw from.
var ErrMissingFunding = errors.New("missing funding")

// PlanKind discriminates the funding plan variants.
type PlanKind int

const (
	// PlanZero funds nothing; a zero-value placeholder coin is used.
	PlanZero PlanKind = iota
	// PlanSplit splits the amount out of a single object.
	PlanSplit
	// PlanMergeSplit merges all candidates into the first, then splits.
	PlanMergeSplit
	// PlanGasSplit splits the amount out of the native gas balance.
	PlanGasSplit
)

// InputSpec describes one side's funding request.
type InputSpec struct {
	RequestedAmount    sdkmath.Int
	CandidateObjectIDs []string
	// AllowGasFallback permits sourcing from the gas balance when no
	// candidates are given. Only the network's native asset qualifies.
	AllowGasFallback bool
}

// FundingPlan is the resolved sourcing decision for one amount.
type FundingPlan struct {
	Kind   PlanKind
	Amount sdkmath.Int
	// Target is the object split from (and merged into, for PlanMergeSplit).
	Target string
	// MergeSources are the objects folded into Target, in input order.
	MergeSources []string
}

// Resolve maps an input spec to a funding plan. Insufficient balances are
// not detected here; they surface at execution time.
func Resolve(spec InputSpec) (FundingPlan, error) {
	if spec.RequestedAmount.IsNil() || spec.RequestedAmount.IsNegative() {
		return FundingPlan{}, fmt.Errorf("%w: requested amount must be non-negative", clmm.ErrInvalidInput)
	}

	if spec.RequestedAmount.IsZero() {
		return FundingPlan{Kind: PlanZero, Amount: sdkmath.ZeroInt()}, nil
	}

	switch {
	case len(spec.CandidateObjectIDs) == 1:
		return FundingPlan{
			Kind:   PlanSplit,
			Amount: spec.RequestedAmount,
			Target: spec.CandidateObjectIDs[0],
		}, nil
	case len(spec.CandidateObjectIDs) > 1:
		return FundingPlan{
			Kind:         PlanMergeSplit,
			Amount:       spec.RequestedAmount,
			Target:       spec.CandidateObjectIDs[0],
			MergeSources: spec.CandidateObjectIDs[1:],
		}, nil
	case spec.AllowGasFallback:
		return FundingPlan{Kind: PlanGasSplit, Amount: spec.RequestedAmount}, nil
	default:
		return FundingPlan{}, fmt.Errorf("%w: no candidate objects for amount %s and gas fallback not allowed", ErrMissingFunding, spec.RequestedAmount)
	}
}
