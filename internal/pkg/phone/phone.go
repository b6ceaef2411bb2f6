// Package phone normalizes dialed numbers for tenant and customer matching.
// Matching is digits-only: "+1 (415) 555-0134" and "14155550134" are equal.
package phone

import "strings"

func Normalize(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func Equal(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	return na == nb
}
