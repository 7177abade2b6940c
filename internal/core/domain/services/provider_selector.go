package services

import (
	"math/rand/v2"

	"shipping/internal/core/domain/model/delivery"
)

// ProviderSelector picks the carrier for a new delivery.
type ProviderSelector interface {
	Select(orderID string) delivery.Provider
}

// HashProviderSelector routes by the sum of the order id's code points, so
// the same order always lands on the same carrier: even sums go to the first
// candidate, odd sums to the second, and so on modulo the candidate count.
type HashProviderSelector struct {
	candidates []delivery.Provider
}

// NewHashProviderSelector selects among candidates, defaulting to
// NRW and TLS in that order.
func NewHashProviderSelector(candidates ...delivery.Provider) HashProviderSelector {
	if len(candidates) == 0 {
		candidates = []delivery.Provider{delivery.NRW, delivery.TLS}
	}
	return HashProviderSelector{candidates: candidates}
}

func (s HashProviderSelector) Select(orderID string) delivery.Provider {
	sum := 0
	for _, r := range orderID {
		sum += int(r)
	}
	return s.candidates[sum%len(s.candidates)]
}

// RandomProviderSelector spreads load uniformly regardless of order id.
type RandomProviderSelector struct {
	candidates []delivery.Provider
	intN       func(n int) int
}

// NewRandomProviderSelector uses math/rand/v2 when intN is nil.
func NewRandomProviderSelector(intN func(n int) int, candidates ...delivery.Provider) RandomProviderSelector {
	if len(candidates) == 0 {
		candidates = []delivery.Provider{delivery.NRW, delivery.TLS}
	}
	if intN == nil {
		intN = rand.IntN
	}
	return RandomProviderSelector{candidates: candidates, intN: intN}
}

func (s RandomProviderSelector) Select(_ string) delivery.Provider {
	return s.candidates[s.intN(len(s.candidates))]
}
