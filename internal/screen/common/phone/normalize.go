package phone

import "strings"

// SignificantDigits is the number of trailing digits kept by Normalize.
const SignificantDigits = 10

// Normalize returns the comparison key for a dialed number:
//   - Every non-digit character is dropped (spaces, dashes, parentheses, '+')
//   - Only the trailing SignificantDigits digits are kept, so a country prefix
//     does not produce a distinct key
//   - Input without any digit normalizes to ""
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	digits := b.String()
	if len(digits) > SignificantDigits {
		digits = digits[len(digits)-SignificantDigits:]
	}
	return digits
}

// NormalizeAll normalizes each input, dropping empties and duplicates while
// preserving first-seen order.
func NormalizeAll(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		n := Normalize(r)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// Set builds a membership set of normalized numbers.
func Set(raw []string) map[string]struct{} {
	out := make(map[string]struct{}, len(raw))
	for _, n := range NormalizeAll(raw) {
		out[n] = struct{}{}
	}
	return out
}
