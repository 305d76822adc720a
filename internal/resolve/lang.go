package resolve

import "strings"

// languagePatterns are distinctive substrings of each locale's UI text.
// Pattern hits outrank the coarser character-range fallback below.
var languagePatterns = map[string][]string{
	"zh_CN": {"皮肤", "英雄", "冠军"},
	"zh_TW": {"皮膚", "英雄", "冠軍"},
	"ja_JP": {"スキン", "チャンピオン", "ヒーロー"},
	"ko_KR": {"스킨", "챔피언", "영웅"},
	"ru_RU": {"скин", "чемпион", "герой"},
	"de_DE": {"haut", "champion", "held"},
	"fr_FR": {"peau", "champion", "héros"},
	"es_ES": {"piel", "campeón", "héroe"},
	"pt_BR": {"pele", "campeão", "herói"},
	"it_IT": {"pelle", "campione", "eroe", "campionessa"},
	"tr_TR": {"cilt", "şampiyon", "kahraman"},
	"pl_PL": {"skóra", "mistrz", "bohater"},
	"hu_HU": {"bőr", "bajnok", "hős"},
	"ro_RO": {"piele", "campion", "erou"},
	"el_GR": {"δέρμα", "πρωταθλητής", "ήρωας"},
}

// LanguageGuess is the outcome of text-based language detection.
type LanguageGuess struct {
	Language   string
	Confidence float64
	Matched    []string
}

// DetectLanguage guesses the locale of a piece of on-screen text. Pattern
// matches win; otherwise Unicode block membership decides; otherwise
// en_US with low confidence.
func DetectLanguage(text string) LanguageGuess {
	lower := strings.ToLower(text)

	bestLang, bestHits := "", 0
	var bestMatched []string
	for lang, patterns := range languagePatterns {
		hits := 0
		var matched []string
		for _, p := range patterns {
			if strings.Contains(lower, strings.ToLower(p)) {
				hits++
				matched = append(matched, p)
			}
		}
		if hits > bestHits || (hits == bestHits && hits > 0 && lang < bestLang) {
			bestLang, bestHits, bestMatched = lang, hits, matched
		}
	}
	if bestHits > 0 {
		conf := float64(bestHits) / float64(len(languagePatterns[bestLang]))
		if conf > 1 {
			conf = 1
		}
		return LanguageGuess{Language: bestLang, Confidence: conf, Matched: bestMatched}
	}
	return detectByScript(text)
}

// detectByScript checks the whole string against one script at a time so
// mixed CJK text resolves in a stable order (Han before kana before
// Hangul).
func detectByScript(text string) LanguageGuess {
	scripts := []struct {
		lang, tag string
		in        func(rune) bool
	}{
		{"zh_CN", "han", func(r rune) bool { return r >= 0x4e00 && r <= 0x9fff }},
		{"ja_JP", "kana", func(r rune) bool {
			return (r >= 0x3040 && r <= 0x309f) || (r >= 0x30a0 && r <= 0x30ff)
		}},
		{"ko_KR", "hangul", func(r rune) bool { return r >= 0xac00 && r <= 0xd7af }},
		{"ru_RU", "cyrillic", func(r rune) bool { return r >= 0x0400 && r <= 0x04ff }},
		{"el_GR", "greek", func(r rune) bool { return r >= 0x0370 && r <= 0x03ff }},
	}
	for _, s := range scripts {
		for _, r := range text {
			if s.in(r) {
				return LanguageGuess{s.lang, 0.7, []string{s.tag}}
			}
		}
	}
	return LanguageGuess{"en_US", 0.5, []string{"default"}}
}
