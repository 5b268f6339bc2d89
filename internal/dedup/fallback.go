package dedup

import (
	"encoding/binary"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// defaultLanguage is used when an item's language has no prefix list.
const defaultLanguage = "en"

// DefaultPrefixes are the fallback prefixes per language. Each list must hold
// distinct, non-empty entries.
func DefaultPrefixes() map[string][]string {
	return map[string][]string{
		"en": {"Review: ", "Practice: ", "Check: ", "Recap: ", "Apply it: ", "Scenario: "},
		"hu": {"Ismétlés: ", "Gyakorlás: ", "Ellenőrzés: ", "Összefoglalás: ", "Alkalmazás: ", "Helyzet: "},
		"de": {"Wiederholung: ", "Übung: ", "Kontrolle: ", "Zusammenfassung: ", "Anwendung: ", "Szenario: "},
		"es": {"Repaso: ", "Práctica: ", "Comprobación: ", "Resumen: ", "Aplicación: ", "Escenario: "},
	}
}

// prefixesFor returns the prefix list for a language tag such as "hu" or "en-GB".
func prefixesFor(table map[string][]string, language string) []string {
	lang := strings.ToLower(strings.TrimSpace(language))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	if list, ok := table[lang]; ok && len(list) > 0 {
		return list
	}
	return table[defaultLanguage]
}

// hash64 is the first eight bytes of a 64-bit BLAKE2b digest of s.
func hash64(s string) uint64 {
	h, err := blake2b.New(8, nil)
	if err != nil {
		// Only returned for an invalid size or key.
		panic(err)
	}
	h.Write([]byte(s))
	return binary.BigEndian.Uint64(h.Sum(nil))
}

// Seed derives the generator seed for an item.
func Seed(itemID string) int64 {
	return int64(hash64(itemID) & (1<<63 - 1))
}

// prefixStart picks the first prefix to try for an item.
func prefixStart(itemID, lessonID string, n int) int {
	return int(hash64(itemID+"|"+lessonID) % uint64(n))
}

// splitPrefix strips a prefix from the list if text starts with one and
// returns the stripped text and that prefix's index, or -1.
func splitPrefix(text string, prefixes []string) (string, int) {
	for i, p := range prefixes {
		if strings.HasPrefix(text, p) {
			return strings.TrimSpace(strings.TrimPrefix(text, p)), i
		}
	}
	return text, -1
}

// fallbackTexts lists the prefixed texts to try, in order, for one item.
func fallbackTexts(itemID, lessonID, language, text string, table map[string][]string) []string {
	prefixes := prefixesFor(table, language)
	n := len(prefixes)
	if n == 0 {
		return nil
	}

	base, existing := splitPrefix(text, prefixes)
	start := prefixStart(itemID, lessonID, n)
	if existing >= 0 {
		start = (existing + 1) % n
	}

	out := make([]string, 0, n)
	for k := 0; k < n; k++ {
		out = append(out, prefixes[(start+k)%n]+base)
	}
	return out
}
