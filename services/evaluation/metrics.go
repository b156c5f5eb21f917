// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package evaluation scores a model ranking against a human ground
// truth with standard rank-agreement metrics.
package evaluation

import (
	"math"
	"sort"
)

// KendallTau computes Kendall's tau-b between two equal-length rank
// vectors. Ties are handled with the tau-b correction; a degenerate
// input (all ties) yields NaN, matching the usual statistics
// packages.
func KendallTau(a, b []int) float64 {
	n := len(a)
	if n != len(b) || n < 2 {
		return math.NaN()
	}

	var concordant, discordant int
	var tiesA, tiesB int
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			da := a[i] - a[j]
			db := b[i] - b[j]
			switch {
			case da == 0 && db == 0:
				// tied in both, contributes to neither correction
			case da == 0:
				tiesA++
			case db == 0:
				tiesB++
			case (da > 0) == (db > 0):
				concordant++
			default:
				discordant++
			}
		}
	}

	n0 := n * (n - 1) / 2
	denom := math.Sqrt(float64(n0-tiesA)) * math.Sqrt(float64(n0-tiesB))
	if denom == 0 {
		return math.NaN()
	}
	return float64(concordant-discordant) / denom
}

// SpearmanRho computes Spearman's rank correlation, averaging ranks
// over ties.
func SpearmanRho(a, b []int) float64 {
	n := len(a)
	if n != len(b) || n < 2 {
		return math.NaN()
	}
	return pearson(tieAveragedRanks(a), tieAveragedRanks(b))
}

// tieAveragedRanks converts values to 1-based ranks, assigning tied
// values the mean of the ranks they span.
func tieAveragedRanks(xs []int) []float64 {
	idx := make([]int, len(xs))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool { return xs[idx[i]] < xs[idx[j]] })

	ranks := make([]float64, len(xs))
	for i := 0; i < len(idx); {
		j := i
		for j < len(idx) && xs[idx[j]] == xs[idx[i]] {
			j++
		}
		avg := float64(i+j+1) / 2 // mean of 1-based ranks i+1..j
		for k := i; k < j; k++ {
			ranks[idx[k]] = avg
		}
		i = j
	}
	return ranks
}

func pearson(a, b []float64) float64 {
	n := float64(len(a))
	var meanA, meanB float64
	for i := range a {
		meanA += a[i]
		meanB += b[i]
	}
	meanA /= n
	meanB /= n

	var cov, varA, varB float64
	for i := range a {
		da := a[i] - meanA
		db := b[i] - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return math.NaN()
	}
	return cov / math.Sqrt(varA*varB)
}

// gain is the exponential relevance gain used by NDCG.
func gain(r int) float64 {
	return math.Pow(2, float64(r)) - 1
}

func dcg(ids []string, relevance map[string]int, k int) float64 {
	score := 0.0
	for i, id := range ids {
		if i >= k {
			break
		}
		score += gain(relevance[id]) / math.Log2(float64(i)+2)
	}
	return score
}

// NDCGFromGroundTruth derives relevance from ground-truth rank (the
// top item is the most relevant) and scores the predicted ordering.
// Ground-truth items missing from the prediction contribute nothing.
func NDCGFromGroundTruth(gtIDs, llmIDs []string) float64 {
	relevance := make(map[string]int, len(gtIDs))
	for i, id := range gtIDs {
		relevance[id] = len(gtIDs) - i
	}

	k := len(gtIDs)
	pred := llmIDs
	if len(pred) > k {
		pred = pred[:k]
	}

	idcg := dcg(gtIDs, relevance, k)
	if idcg == 0 {
		return 0
	}
	return dcg(pred, relevance, k) / idcg
}

// NDCGFromSeverity scores the predicted ordering against explicit
// per-id relevance (severity mapped to 3/2/1). Unknown ids get zero
// relevance.
func NDCGFromSeverity(llmIDs []string, relevance map[string]int) float64 {
	k := len(llmIDs)

	ideal := make([]string, 0, len(relevance))
	for id := range relevance {
		ideal = append(ideal, id)
	}
	sort.Slice(ideal, func(i, j int) bool {
		if relevance[ideal[i]] != relevance[ideal[j]] {
			return relevance[ideal[i]] > relevance[ideal[j]]
		}
		return ideal[i] < ideal[j]
	})

	idcg := dcg(ideal, relevance, k)
	if idcg == 0 {
		return 0
	}
	return dcg(llmIDs, relevance, k) / idcg
}

// RBO computes rank-biased overlap between two rankings. With p=1 it
// degenerates to the average agreement over all depths, the behavior
// evaluation runs use by default.
func RBO(s, t []string, p float64) float64 {
	k := len(s)
	if len(t) > k {
		k = len(t)
	}
	if k == 0 {
		return 1
	}

	inS := map[string]bool{}
	inT := map[string]bool{}
	overlap := 0
	sum := 0.0
	weight := 1.0

	for d := 1; d <= k; d++ {
		if d-1 < len(s) {
			e := s[d-1]
			if inT[e] {
				overlap++
			}
			inS[e] = true
		}
		if d-1 < len(t) {
			e := t[d-1]
			if inS[e] {
				overlap++
			}
			inT[e] = true
		}

		agreement := float64(overlap) / float64(d)
		if p == 1 {
			sum += agreement
		} else {
			sum += weight * agreement
			weight *= p
		}
	}

	if p == 1 {
		return sum / float64(k)
	}
	return (1 - p) * sum
}
