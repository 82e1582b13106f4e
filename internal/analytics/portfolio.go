package analytics

import (
	"sort"
	"time"

	"github.com/wallet-radar/internal/models"
	"github.com/wallet-radar/internal/types"
)

// Portfolio construction parameters.
const (
	candidatePoolSize = 25
	maxPortfolioSize  = 10
	maxPerStyle       = 3
	maxPerRegion      = 4

	scoreWeight       = 0.7
	correlationWeight = 20.0
)

// DefaultDimensionOrder is the order the diversity bootstrap walks the tag
// dimensions in. The order affects which wallet wins ties, so it is an
// explicit parameter rather than an implicit loop.
var DefaultDimensionOrder = []string{
	types.TagStyle,
	types.TagRegion,
	types.TagDirectionalBias,
	types.TagTimePattern,
}

// Construct selects a bounded, diversified portfolio from the qualified
// wallet population. Candidates are the top-scored qualified wallets; a
// diversity bootstrap seeds one wallet per distinct tag value across the
// dimension order, then a correlation-penalized greedy fill tops the
// portfolio up under the style and region quotas. An empty or fully
// disqualified population yields a well-formed empty snapshot.
func Construct(wallets []models.Wallet, tradesByWallet map[string][]models.Trade, asOf time.Time) models.PortfolioModel {
	return ConstructOrdered(wallets, tradesByWallet, DefaultDimensionOrder, asOf)
}

// ConstructOrdered is Construct with an explicit bootstrap dimension order.
func ConstructOrdered(wallets []models.Wallet, tradesByWallet map[string][]models.Trade, dimensions []string, asOf time.Time) models.PortfolioModel {
	candidates := candidatePool(wallets)
	model := models.PortfolioModel{
		CreatedAt: asOf,
		Wallets:   []models.PortfolioWallet{},
		Meta:      models.NewPortfolioMeta(),
	}
	if len(candidates) == 0 {
		return model
	}

	matrix := correlationMatrix(candidates, tradesByWallet)

	sel := &selection{
		candidates: candidates,
		matrix:     matrix,
		selected:   make([]int, 0, maxPortfolioSize),
		picked:     make([]bool, len(candidates)),
		styles:     make(map[string]int),
		regions:    make(map[string]int),
	}

	sel.bootstrap(dimensions)
	sel.greedyFill()

	for _, idx := range sel.selected {
		w := candidates[idx]
		model.Wallets = append(model.Wallets, models.PortfolioWallet{
			Address:  w.Address,
			Score:    w.TotalScore(),
			Tags:     tagList(w.Tags),
			CopyMode: w.CopyMode,
		})
		countTag(model.Meta.Styles, w.Tags, types.TagStyle)
		countTag(model.Meta.Regions, w.Tags, types.TagRegion)
		countTag(model.Meta.Biases, w.Tags, types.TagDirectionalBias)
		countTag(model.Meta.TimePatterns, w.Tags, types.TagTimePattern)
	}
	return model
}

// candidatePool filters to qualified wallets, sorts by score descending with
// address as a deterministic tie-break, and caps the pool.
func candidatePool(wallets []models.Wallet) []models.Wallet {
	pool := make([]models.Wallet, 0, len(wallets))
	for _, w := range wallets {
		if w.Qualified {
			pool = append(pool, w)
		}
	}
	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].TotalScore() != pool[j].TotalScore() {
			return pool[i].TotalScore() > pool[j].TotalScore()
		}
		return pool[i].Address < pool[j].Address
	})
	if len(pool) > candidatePoolSize {
		pool = pool[:candidatePoolSize]
	}
	return pool
}

// selection carries the state of one construction run.
type selection struct {
	candidates []models.Wallet
	matrix     [][]float64
	selected   []int
	picked     []bool
	styles     map[string]int
	regions    map[string]int
}

// bootstrap walks the dimensions in order and seeds, per distinct tag value,
// that value's highest-scoring wallet that still fits under the category
// quotas. Candidates are already sorted by score, so the first admissible
// holder of a value is its best; when a holder was already selected through
// an earlier dimension the value is covered and contributes no further pick.
// A quota-blocked holder leaves the value open for a later, lower-scored one.
func (s *selection) bootstrap(dimensions []string) {
	for _, dim := range dimensions {
		seen := make(map[string]bool)
		for idx, w := range s.candidates {
			if len(s.selected) >= maxPortfolioSize {
				return
			}
			value, ok := w.Tags[dim]
			if !ok || seen[value] {
				continue
			}
			if s.picked[idx] {
				seen[value] = true
				continue
			}
			if !s.withinQuotas(w) {
				continue
			}
			seen[value] = true
			s.pick(idx)
		}
	}
}

// greedyFill adds wallets by diversity score (weighted total score minus a
// correlation penalty against the current selection) until the portfolio is
// full or no candidate fits under the quotas.
func (s *selection) greedyFill() {
	for len(s.selected) < maxPortfolioSize {
		bestIdx := -1
		bestScore := 0.0
		for idx, w := range s.candidates {
			if s.picked[idx] || !s.withinQuotas(w) {
				continue
			}
			score := s.diversityScore(idx)
			if bestIdx == -1 || score > bestScore {
				bestIdx = idx
				bestScore = score
			}
		}
		if bestIdx == -1 {
			return
		}
		s.pick(bestIdx)
	}
}

// diversityScore trades raw score off against redundancy with the wallets
// already selected.
func (s *selection) diversityScore(idx int) float64 {
	var corrSum float64
	for _, sel := range s.selected {
		corrSum += s.matrix[idx][sel]
	}
	return scoreWeight*float64(s.candidates[idx].TotalScore()) - correlationWeight*corrSum
}

// withinQuotas reports whether adding the wallet keeps every category quota
// intact. Wallets missing a tag dimension are unconstrained in it.
func (s *selection) withinQuotas(w models.Wallet) bool {
	if style, ok := w.Tags[types.TagStyle]; ok && s.styles[style]+1 > maxPerStyle {
		return false
	}
	if region, ok := w.Tags[types.TagRegion]; ok && s.regions[region]+1 > maxPerRegion {
		return false
	}
	return true
}

func (s *selection) pick(idx int) {
	s.selected = append(s.selected, idx)
	s.picked[idx] = true
	w := s.candidates[idx]
	if style, ok := w.Tags[types.TagStyle]; ok {
		s.styles[style]++
	}
	if region, ok := w.Tags[types.TagRegion]; ok {
		s.regions[region]++
	}
}

// tagList flattens a tag map into a sorted key=value list for snapshot
// storage.
func tagList(tags map[string]string) []string {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+tags[k])
	}
	return out
}

func countTag(dist map[string]int, tags map[string]string, key string) {
	if v, ok := tags[key]; ok {
		dist[v]++
	}
}
