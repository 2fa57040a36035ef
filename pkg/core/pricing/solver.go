// Package pricing - Target Price Solver
// Picks, per target net price, the rate whose adjusted price lands closest.
package pricing

import (
	"math"
	"sort"

	"ratequote/pkg/core/ratesheet"
)

// candidate is one quotable rate with its margin- and adjustment-corrected
// net price.
type candidate struct {
	rate     ratesheet.ParsedRate
	netPrice float64
}

// buildCandidates computes net prices and sorts ascending by rate, which
// keeps solves deterministic under ties.
func buildCandidates(rates []ratesheet.ParsedRate, adjustments, margin float64) []candidate {
	cands := make([]candidate, 0, len(rates))
	for _, r := range rates {
		price := r.BestPrice()
		if price == 0 {
			continue
		}
		cands = append(cands, candidate{rate: r, netPrice: price + adjustments - margin})
	}
	sort.Slice(cands, func(i, j int) bool { return cands[i].rate.Rate < cands[j].rate.Rate })
	return cands
}

// solveClosest returns the candidate whose net price is nearest the target.
// Ties resolve to the lower rate (candidates are rate-sorted and only a
// strictly better distance displaces the incumbent).
func solveClosest(cands []candidate, target float64) (candidate, bool) {
	best := candidate{}
	bestDist := math.Inf(1)
	found := false
	for _, c := range cands {
		dist := math.Abs(c.netPrice - target)
		if dist < bestDist {
			bestDist = dist
			best = c
			found = true
		}
	}
	return best, found
}

// solveAbove returns the candidate nearest the target among rates strictly
// above floorRate. Used for the lender-credit scenario: a credit is only
// fundable off a rate above par, so a closest-match that lands at or below
// par is never offered as "credit".
func solveAbove(cands []candidate, target, floorRate float64) (candidate, bool) {
	best := candidate{}
	bestDist := math.Inf(1)
	found := false
	for _, c := range cands {
		if c.rate.Rate <= floorRate {
			continue
		}
		dist := math.Abs(c.netPrice - target)
		if dist < bestDist {
			bestDist = dist
			best = c
			found = true
		}
	}
	return best, found
}
