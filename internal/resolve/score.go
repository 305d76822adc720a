package resolve

import "strings"

// foldRunes rewrites text for distance scoring. Characters text
// recognition habitually confuses or invents are deleted outright
// (spaces, apostrophes, hyphens, underscores, and the 1/l/i family);
// accented Latin letters fold to their base letter.
var deleteRunes = map[rune]bool{
	' ': true, '\'': true, '1': true, '-': true, '_': true,
	'l': true, 'i': true, 'í': true, 'ì': true, 'î': true, 'ï': true,
}

var foldTable = map[rune]rune{
	'à': 'a', 'á': 'a', 'â': 'a', 'ã': 'a', 'ä': 'a', 'å': 'a', 'æ': 'a',
	'ç': 'c',
	'é': 'e', 'è': 'e', 'ê': 'e', 'ë': 'e',
	'ñ': 'n',
	'ò': 'o', 'ó': 'o', 'ô': 'o', 'õ': 'o', 'ö': 'o', 'ø': 'o', 'œ': 'o',
	'ù': 'u', 'ú': 'u', 'û': 'u', 'ü': 'u',
	'ý': 'y', 'ÿ': 'y',
}

func foldRunes(s string) []rune {
	out := make([]rune, 0, len(s))
	for _, r := range strings.ToLower(s) {
		if deleteRunes[r] {
			continue
		}
		if f, ok := foldTable[r]; ok {
			r = f
		}
		out = append(out, r)
	}
	return out
}

// Score returns a similarity in [0,1] between recognized text and a
// candidate label: 1 - distance/maxLen over the folded forms. Two empty
// folded strings score 1; one empty side scores 0 via the distance.
func Score(text, label string) float64 {
	if text == "" || label == "" {
		return 0
	}
	a, b := foldRunes(text), foldRunes(label)
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	score := 1 - float64(levenshtein(a, b))/float64(maxLen)
	if score < 0 {
		return 0
	}
	return score
}

// levenshtein is the classic two-row DP over rune slices.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min3(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
