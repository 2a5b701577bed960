package simhash

import (
	"hash/fnv"
	"math/bits"
	"strings"

	"github.com/use-agent/shopcrawl/models"
)

// Fingerprint computes a 64-bit SimHash over the given features.
// Uses FNV-64a hash per feature with bit vector accumulation.
func Fingerprint(features []string) uint64 {
	if len(features) == 0 {
		return 0
	}

	var vector [64]int
	for _, feature := range features {
		h := fnv.New64a()
		h.Write([]byte(feature))
		hash := h.Sum64()

		for i := 0; i < 64; i++ {
			if hash&(1<<uint(i)) != 0 {
				vector[i]++
			} else {
				vector[i]--
			}
		}
	}

	var fingerprint uint64
	for i := 0; i < 64; i++ {
		if vector[i] > 0 {
			fingerprint |= 1 << uint(i)
		}
	}
	return fingerprint
}

// FingerprintProducts fingerprints one listing page. Each record is a single
// feature, so two pages only match when they carry the same cards.
func FingerprintProducts(items []models.ProductRecord) uint64 {
	features := make([]string, 0, len(items))
	for _, item := range items {
		features = append(features, strings.Join([]string{
			item.Brand, item.Title, item.Price, item.Image, item.Sizes,
		}, "\x1f"))
	}
	return Fingerprint(features)
}

// Distance returns the Hamming distance between two SimHash fingerprints.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Similar returns true if the Hamming distance between two fingerprints
// is less than or equal to the threshold.
func Similar(a, b uint64, threshold int) bool {
	return Distance(a, b) <= threshold
}
