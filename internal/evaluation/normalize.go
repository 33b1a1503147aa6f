package evaluation

import "strings"

// Arabic combining marks (tashkeel) and tatweel stripped before scoring.
// Answers like "كِتَاب" and "كتاب" should compare equal.
var strippedRunes = map[rune]struct{}{
	'ً': {}, // fathatan
	'ٌ': {}, // dammatan
	'ٍ': {}, // kasratan
	'َ': {}, // fatha
	'ُ': {}, // damma
	'ِ': {}, // kasra
	'ّ': {}, // shadda
	'ْ': {}, // sukun
	'ٰ': {}, // superscript alef
	'ـ': {}, // tatweel
}

// Orthographic folding used by the VQA evaluation scripts: alef variants to
// bare alef, teh marbuta to heh, alef maqsura to yeh.
var foldedRunes = map[rune]rune{
	'آ': 'ا', // alef with madda
	'أ': 'ا', // alef with hamza above
	'إ': 'ا', // alef with hamza below
	'ة': 'ه', // teh marbuta -> heh
	'ى': 'ي', // alef maqsura -> yeh
}

// NormalizeArabic folds Arabic orthographic variants, strips diacritics and
// collapses whitespace. Latin text is lowercased so mixed-script answers
// still compare sanely.
func NormalizeArabic(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if _, drop := strippedRunes[r]; drop {
			continue
		}
		if folded, ok := foldedRunes[r]; ok {
			r = folded
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(strings.ToLower(b.String())), " ")
}

// identity is used when normalization is disabled in configuration.
func identity(s string) string { return s }
