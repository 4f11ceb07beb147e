// Package resolver assigns unique emitted names to overloaded signatures.
package resolver

import (
	"strconv"

	"github.com/toyz/abitest/internal/models"
)

// Resolve gives every signature a unique base name in declaration order.
// The first occurrence of a name is kept as is; later occurrences get the suffixes 1, 2, 3...
// The counters live only for this call.
func Resolve(sigs []models.ClassifiedSignature) []models.ResolvedSignature {
	next := make(map[string]int)
	out := make([]models.ResolvedSignature, 0, len(sigs))

	for _, s := range sigs {
		name := s.Signature.Name
		resolved := name
		if counter, seen := next[name]; seen {
			resolved = name + strconv.Itoa(counter)
			next[name] = counter + 1
		} else {
			next[name] = 1
		}
		out = append(out, models.ResolvedSignature{ClassifiedSignature: s, ResolvedName: resolved})
	}

	return out
}

// Names is a convenience returning only the resolved names for plain signatures
func Names(sigs []models.Signature) []string {
	classified := make([]models.ClassifiedSignature, len(sigs))
	for i, s := range sigs {
		classified[i] = models.ClassifiedSignature{Signature: s}
	}
	resolved := Resolve(classified)
	names := make([]string, len(resolved))
	for i, r := range resolved {
		names[i] = r.ResolvedName
	}
	return names
}
