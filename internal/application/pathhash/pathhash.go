// Package pathhash computes the canonical path_hash used to deduplicate
// PathDefinitions, per spec §4.C "Hash format". The hash is intentionally
// simple and language-portable: md5 over a '|'-joined ASCII form built from
// sorted node/link id lists, so any reimplementation in any language
// reproduces the same digest.
package pathhash

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
)

// Compute returns path_hash = md5(sortedNodeIds.join(",") + "|" +
// sortedLinkIds.join(",") + "|" + sourceType + "|" + scope). The input
// slices are not mutated; a stable-sorted copy is hashed so that callers
// that pass an already-sorted slice pay no extra allocation cost beyond
// the copy itself.
func Compute(nodeIDs, linkIDs []int64, sourceType, scope string) string {
	nodes := sortedCopy(nodeIDs)
	links := sortedCopy(linkIDs)

	var b strings.Builder
	writeJoined(&b, nodes)
	b.WriteByte('|')
	writeJoined(&b, links)
	b.WriteByte('|')
	b.WriteString(sourceType)
	b.WriteByte('|')
	b.WriteString(scope)

	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func sortedCopy(ids []int64) []int64 {
	out := make([]int64, len(ids))
	copy(out, ids)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func writeJoined(b *strings.Builder, ids []int64) {
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(id, 10))
	}
}
