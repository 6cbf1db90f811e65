// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"math"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

// Ratio is the indel similarity of a and b on a 0..100 scale:
// 200*LCS/(len(a)+len(b)) rounded half to even. Empty input scores 0.
func Ratio(a, b string) int {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la == 0 || lb == 0 {
		return 0
	}
	lcs := matchr.LongestCommonSubsequence(a, b)
	return int(math.RoundToEven(200 * float64(lcs) / float64(la+lb)))
}
