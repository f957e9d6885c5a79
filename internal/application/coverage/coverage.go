// Package coverage implements the Coverage Tracker (spec §4.D): a pair of
// bitsets sized to the in-scope node/link universe, answering "did this
// path add anything new?" in O(|path|). The bitset implementation itself is
// swappable per spec §9 ("replace with any implementation exposing Set,
// Test, PopCount, Union, and hex round-trip") — this uses
// github.com/bits-and-blooms/bitset, already present in the reference
// corpus as an indirect dependency.
package coverage

import (
	"context"
	"sort"

	"github.com/bits-and-blooms/bitset"
	hex "github.com/tmthrgd/go-hex"

	"github.com/jfrisancho/fabnet-coverage/internal/domain/model"
	"github.com/jfrisancho/fabnet-coverage/internal/domain/repository"
)

// linkPair is the unordered (min, max) node-id pair identifying a link for
// coverage purposes, per spec §4.D's link universe definition.
type linkPair [2]int64

func makeLinkPair(a, b int64) linkPair {
	if a > b {
		a, b = b, a
	}
	return linkPair{a, b}
}

// Tracker holds one run's transient coverage state. It is owned exclusively
// by the orchestrator loop and never shared across runs (spec §5).
type Tracker struct {
	nodeIndex map[int64]uint
	linkIndex map[linkPair]uint
	nodeRev   []int64
	linkRev   []linkPair

	nodeBits *bitset.BitSet
	linkBits *bitset.BitSet

	seenHashes map[string]struct{}

	coveredNodes int
	coveredLinks int
}

// Initialize computes the universe for scope via the repository and
// allocates two zeroed bitsets of exact arity, per spec §4.D.
func Initialize(ctx context.Context, repo repository.SamplingRepository, scope model.Scope) (*Tracker, error) {
	nodes, links, err := repo.CoverageUniverse(ctx, scope)
	if err != nil {
		return nil, err
	}
	return NewFromUniverse(nodes, links), nil
}

// NewFromUniverse builds a Tracker directly from a precomputed node/link
// universe, bypassing the repository round-trip. Used by Initialize and by
// tests that seed the universe from a memstore fixture.
func NewFromUniverse(nodes []int64, links [][2]int64) *Tracker {
	sortedNodes := append([]int64(nil), nodes...)
	sort.Slice(sortedNodes, func(i, j int) bool { return sortedNodes[i] < sortedNodes[j] })

	pairs := make([]linkPair, 0, len(links))
	seen := make(map[linkPair]struct{}, len(links))
	for _, l := range links {
		p := makeLinkPair(l[0], l[1])
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})

	t := &Tracker{
		nodeIndex:  make(map[int64]uint, len(sortedNodes)),
		linkIndex:  make(map[linkPair]uint, len(pairs)),
		nodeRev:    sortedNodes,
		linkRev:    pairs,
		nodeBits:   bitset.New(uint(len(sortedNodes))),
		linkBits:   bitset.New(uint(len(pairs))),
		seenHashes: make(map[string]struct{}),
	}
	for i, n := range sortedNodes {
		t.nodeIndex[n] = uint(i)
	}
	for i, p := range pairs {
		t.linkIndex[p] = uint(i)
	}
	return t
}

// TotalNodes/TotalLinks report the universe arities.
func (t *Tracker) TotalNodes() int { return len(t.nodeRev) }
func (t *Tracker) TotalLinks() int { return len(t.linkRev) }

// Update records a discovered path's nodes against the coverage bitsets,
// per spec §4.D. pathHash is the canonical hash from pathhash.Compute; a
// repeat hash is a no-op that returns the unchanged fraction.
func (t *Tracker) Update(pathHash string, nodes []int64) (bool, float64) {
	if _, ok := t.seenHashes[pathHash]; ok {
		return false, t.Fraction()
	}
	t.seenHashes[pathHash] = struct{}{}

	for _, n := range nodes {
		idx, ok := t.nodeIndex[n]
		if !ok {
			continue
		}
		if !t.nodeBits.Test(idx) {
			t.nodeBits.Set(idx)
			t.coveredNodes++
		}
	}
	for i := 0; i+1 < len(nodes); i++ {
		p := makeLinkPair(nodes[i], nodes[i+1])
		idx, ok := t.linkIndex[p]
		if !ok {
			continue
		}
		if !t.linkBits.Test(idx) {
			t.linkBits.Set(idx)
			t.coveredLinks++
		}
	}
	return true, t.Fraction()
}

// Fraction is the pooled node+link coverage ratio, per spec §4.D. Division
// by zero yields 0.0.
func (t *Tracker) Fraction() float64 {
	total := len(t.nodeRev) + len(t.linkRev)
	if total == 0 {
		return 0.0
	}
	return float64(t.coveredNodes+t.coveredLinks) / float64(total)
}

// NodeFraction/LinkFraction are the reporting-only single-universe ratios.
func (t *Tracker) NodeFraction() float64 {
	if len(t.nodeRev) == 0 {
		return 0.0
	}
	return float64(t.coveredNodes) / float64(len(t.nodeRev))
}

func (t *Tracker) LinkFraction() float64 {
	if len(t.linkRev) == 0 {
		return 0.0
	}
	return float64(t.coveredLinks) / float64(len(t.linkRev))
}

// UncoveredNodes walks the node bitset in index order and returns up to
// limit node ids whose bit is unset. limit <= 0 means unlimited.
func (t *Tracker) UncoveredNodes(limit int) []int64 {
	var out []int64
	for i := uint(0); i < uint(len(t.nodeRev)); i++ {
		if !t.nodeBits.Test(i) {
			out = append(out, t.nodeRev[i])
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out
}

// UncoveredLinks mirrors UncoveredNodes for the link universe.
func (t *Tracker) UncoveredLinks(limit int) [][2]int64 {
	var out [][2]int64
	for i := uint(0); i < uint(len(t.linkRev)); i++ {
		if !t.linkBits.Test(i) {
			p := t.linkRev[i]
			out = append(out, [2]int64{p[0], p[1]})
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out
}

// GapsByNode aggregates uncovered nodes by a caller-supplied key function
// (data_code, utility_no, fab, or phase, per spec §4.D "Gap reports"),
// flagging any group with more than 5 members as actionable.
func GapsByNode(uncovered []int64, keyFn func(nodeID int64) string) map[string]GapGroup {
	groups := make(map[string]GapGroup)
	for _, n := range uncovered {
		k := keyFn(n)
		g := groups[k]
		g.Count++
		g.NodeIDs = append(g.NodeIDs, n)
		g.Actionable = g.Count > 5
		groups[k] = g
	}
	return groups
}

// GapGroup is one aggregation bucket from GapsByNode.
type GapGroup struct {
	Count      int
	NodeIDs    []int64
	Actionable bool
}

// Snapshot is the hex-encoded export of the coverage bitsets, for debugging
// and replay only (spec §4.D "Persistence is transient").
type Snapshot struct {
	NodeBitsHex string
	LinkBitsHex string
}

// Export serializes both bitsets to hex via tmthrgd/go-hex.
func (t *Tracker) Export() (Snapshot, error) {
	nodeBytes, err := t.nodeBits.MarshalBinary()
	if err != nil {
		return Snapshot{}, err
	}
	linkBytes, err := t.linkBits.MarshalBinary()
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		NodeBitsHex: hex.EncodeToString(nodeBytes),
		LinkBitsHex: hex.EncodeToString(linkBytes),
	}, nil
}

// Import restores a Tracker's bitset contents from a Snapshot taken from a
// Tracker with the same universe (index maps are not part of the
// snapshot and must already be in place via NewFromUniverse).
func (t *Tracker) Import(snap Snapshot) error {
	nodeBytes, err := hex.DecodeString(snap.NodeBitsHex)
	if err != nil {
		return err
	}
	linkBytes, err := hex.DecodeString(snap.LinkBitsHex)
	if err != nil {
		return err
	}
	if err := t.nodeBits.UnmarshalBinary(nodeBytes); err != nil {
		return err
	}
	if err := t.linkBits.UnmarshalBinary(linkBytes); err != nil {
		return err
	}
	t.coveredNodes = int(t.nodeBits.Count())
	t.coveredLinks = int(t.linkBits.Count())
	return nil
}
