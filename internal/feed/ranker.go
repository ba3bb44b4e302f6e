// Package feed builds ranked discovery feeds for tenants and landlords.
package feed

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"roomify/server/config"
	"roomify/server/internal/models"
)

// Candidate is one feed entry. Tenant feeds carry the property snapshot,
// landlord feeds carry the tenant snapshot.
type Candidate struct {
	PropertyID    uint             `json:"property_id"`
	TenantID      string           `json:"tenant_id"`
	Compatibility float64          `json:"compatibility"`
	History       float64          `json:"history"`
	Total         float64          `json:"total"`
	Property      *models.Property `json:"property,omitempty"`
	Tenant        *models.User     `json:"tenant,omitempty"`
}

// Ranker orders candidates. The random source is shared between requests
// and guarded by a mutex.
type Ranker struct {
	threshold  float64
	shuffleMin int

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRanker seeds the shuffle from cfg.ShuffleSeed, or from the clock when
// the seed is zero.
func NewRanker(cfg config.FeedConfig) *Ranker {
	seed := cfg.ShuffleSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return NewRankerWithRand(cfg, rand.New(rand.NewSource(seed)))
}

func NewRankerWithRand(cfg config.FeedConfig, rng *rand.Rand) *Ranker {
	return &Ranker{
		threshold:  cfg.VisibilityThreshold,
		shuffleMin: cfg.ShuffleMinSize,
		rng:        rng,
	}
}

// Rank blends history into each candidate's total, drops candidates below
// the visibility threshold, sorts by total and then mixes a few lower
// ranked entries into the top half.
func (r *Ranker) Rank(candidates []Candidate) []Candidate {
	ranked := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		c.Total = c.Compatibility + c.History
		if c.Total < r.threshold {
			continue
		}
		ranked = append(ranked, c)
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		if a.PropertyID != b.PropertyID {
			return a.PropertyID < b.PropertyID
		}
		return a.TenantID < b.TenantID
	})

	if len(ranked) > r.shuffleMin {
		r.shuffle(ranked)
	}
	return ranked
}

// shuffle swaps every fifth slot of the top half, starting at index 4,
// with a random slot of the bottom half.
func (r *Ranker) shuffle(ranked []Candidate) {
	mid := len(ranked) / 2

	r.mu.Lock()
	defer r.mu.Unlock()
	for i := 4; i < mid; i += 5 {
		j := mid + r.rng.Intn(len(ranked)-mid)
		ranked[i], ranked[j] = ranked[j], ranked[i]
	}
}
