package fetch

import (
	"math/rand/v2"
	"slices"
	"strings"
	"sync/atomic"
)

// IdentityStrategy picks the client identity string for the next request.
// Implementations must be safe for concurrent use.
type IdentityStrategy interface {
	Next() string
}

// NewIdentityStrategy builds the named strategy over identities.
// Valid names are "rotate", "random" and "fixed".
func NewIdentityStrategy(name string, identities []string) (IdentityStrategy, error) {
	ids := slices.DeleteFunc(slices.Clone(identities), func(s string) bool {
		return strings.TrimSpace(s) == ""
	})
	if len(ids) == 0 {
		return nil, ErrNoIdentities
	}

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "rotate":
		return &Rotate{identities: ids}, nil
	case "random", "":
		return &Random{identities: ids}, nil
	case "fixed":
		return Fixed(ids[0]), nil
	default:
		return nil, ErrUnknownIdentityStrategy
	}
}

// Rotate cycles through identities in order.
type Rotate struct {
	identities []string
	next       atomic.Uint64
}

// NewRotate returns a Rotate strategy starting at the first identity.
func NewRotate(identities ...string) *Rotate {
	return &Rotate{identities: identities}
}

// Next returns the next identity in the cycle.
func (r *Rotate) Next() string {
	if len(r.identities) == 0 {
		return ""
	}
	i := r.next.Add(1) - 1
	return r.identities[i%uint64(len(r.identities))]
}

// Random picks a uniformly random identity per request.
type Random struct {
	identities []string
}

// NewRandom returns a Random strategy.
func NewRandom(identities ...string) *Random {
	return &Random{identities: identities}
}

// Next returns a random identity.
func (r *Random) Next() string {
	if len(r.identities) == 0 {
		return ""
	}
	return r.identities[rand.IntN(len(r.identities))] //nolint:gosec // not security sensitive
}

// Fixed always returns the same identity.
type Fixed string

// Next returns the fixed identity.
func (f Fixed) Next() string {
	return string(f)
}
