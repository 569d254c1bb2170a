// Package displacement normalizes engine-size strings and tests equivalence
// between their many real-world spellings. Workshop records write the same
// engine as "1.6", "1600" or "16" depending on the source system; the
// reconciliation engine must treat all of them as the same size.
//
// The package is pure and dependency-free: no logging, no persistence, safe
// for concurrent use. Callers decide what a failed parse means.
package displacement

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	keepRE    = regexp.MustCompile(`[^0-9.]`)
	decimalRE = regexp.MustCompile(`^\d+\.\d+$`)
	fourRE    = regexp.MustCompile(`^\d{4}$`)
	shortRE   = regexp.MustCompile(`^\d{1,3}$`)
)

// strip removes everything except digits and the decimal point. Suffixes such
// as "TURBO", "T" or "CC" disappear here; comma decimals are not handled.
func strip(raw string) string {
	return keepRE.ReplaceAllString(strings.ToUpper(strings.TrimSpace(raw)), "")
}

// Normalize converts a raw displacement string into its canonical 4-digit
// form ("1.6" → "1600", "16" → "1600", "1600" → "1600"). It returns "" when
// the input cannot be interpreted as an engine size:
//
//   - decimal form D.D is scaled by 1000 and rounded
//   - a 4-digit integer is already canonical
//   - a 2–3 digit integer in [12,99] is read as a compacted decimal (16 ⇒ 1.6)
//   - anything else (empty, non-numeric, out-of-range shorts) is unparseable
func Normalize(raw string) string {
	s := strip(raw)
	if s == "" {
		return ""
	}
	if decimalRE.MatchString(s) {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return ""
		}
		return strconv.Itoa(int(math.Round(f * 1000)))
	}
	if fourRE.MatchString(s) {
		return s
	}
	if shortRE.MatchString(s) {
		n, err := strconv.Atoi(s)
		if err != nil || n < 12 || n > 99 {
			return ""
		}
		return strconv.Itoa(n * 100)
	}
	return ""
}

// Equivalent reports whether two raw displacement strings denote the same
// engine size. Two strings are equivalent when their canonical forms match,
// or when one parses as a decimal and the other as a 4-digit integer and
// round(decimal×1000) equals the integer. Unparseable input is equivalent to
// nothing, including itself.
func Equivalent(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na != "" && na == nb {
		return true
	}
	sa, sb := strip(a), strip(b)
	if crossMatch(sa, sb) || crossMatch(sb, sa) {
		return true
	}
	return false
}

// crossMatch checks the decimal-vs-integer rule: dec like "1.6" against an
// exact 4-digit form like "1600".
func crossMatch(dec, whole string) bool {
	if !decimalRE.MatchString(dec) || !fourRE.MatchString(whole) {
		return false
	}
	f, err := strconv.ParseFloat(dec, 64)
	if err != nil {
		return false
	}
	n, err := strconv.Atoi(whole)
	if err != nil {
		return false
	}
	return int(math.Round(f*1000)) == n
}
