package caption

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/menta2k/image-insight/pkg/taxonomy"
	"github.com/menta2k/image-insight/pkg/types"
)

var numberWords = []string{"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten"}

// NumberWord spells small counts out
func NumberWord(n int) string {
	if n >= 0 && n < len(numberWords) {
		return numberWords[n]
	}
	return fmt.Sprintf("%d", n)
}

// Article returns "a" or "an" for the word that follows it
func Article(word string) string {
	w := strings.ToLower(strings.TrimSpace(word))
	if w == "" {
		return "a"
	}
	for _, p := range []string{"uni", "use", "usu", "uti", "one", "eu"} {
		if strings.HasPrefix(w, p) {
			return "a"
		}
	}
	for _, p := range []string{"hour", "honest", "heir"} {
		if strings.HasPrefix(w, p) {
			return "an"
		}
	}
	if strings.ContainsRune("aeiou", rune(w[0])) {
		return "an"
	}
	return "a"
}

// WithArticle prefixes a noun phrase with its indefinite article
func WithArticle(phrase string) string {
	return Article(phrase) + " " + phrase
}

// Plural makes a rough English plural of a noun phrase
func Plural(noun string) string {
	switch {
	case noun == "person":
		return "people"
	case strings.HasSuffix(noun, "man") && noun != "human":
		return strings.TrimSuffix(noun, "man") + "men"
	case strings.HasSuffix(noun, "s"), strings.HasSuffix(noun, "x"),
		strings.HasSuffix(noun, "ch"), strings.HasSuffix(noun, "sh"):
		return noun + "es"
	case strings.HasSuffix(noun, "y") && len(noun) > 1 && !strings.ContainsRune("aeiou", rune(noun[len(noun)-2])):
		return noun[:len(noun)-1] + "ies"
	}
	return noun + "s"
}

// Capitalize upper-cases the first letter
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// Clip returns the first n runes of s and whether anything was cut
func Clip(s string, n int) (string, bool) {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s, false
	}
	i := 0
	for ; n > 0; n-- {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return s[:i], true
}

// colorable reports whether a subject color is worth naming for this kind of thing
func colorable(identifier string) bool {
	switch taxonomy.Lookup(identifier) {
	case taxonomy.Vehicle, taxonomy.Animal, taxonomy.Clothing, taxonomy.Furniture, taxonomy.Electronics:
		return true
	}
	return false
}

// SubjectPhrase describes a subject as an indefinite noun phrase ("a red car",
// "a group of three people", "two dogs"). Face subjects return their name.
func SubjectPhrase(s types.Subject, color string) string {
	if s.Source == types.SubjectFromFace {
		return s.Label
	}
	noun := types.NormalizeIdentifier(s.Identifier)
	if noun == "" {
		noun = strings.ToLower(s.Label)
	}
	if s.Count > 1 {
		if taxonomy.IsPerson(noun) {
			return "a group of " + NumberWord(s.Count) + " people"
		}
		return NumberWord(s.Count) + " " + Plural(noun)
	}
	if color != "" && colorable(noun) {
		noun = color + " " + noun
	}
	return WithArticle(noun)
}

var settingPhrases = map[string]string{
	"beach":       "on the beach",
	"coast":       "on the coast",
	"ocean":       "by the ocean",
	"sea":         "by the sea",
	"lake":        "by a lake",
	"river":       "by a river",
	"water":       "by the water",
	"mountain":    "in the mountains",
	"snow":        "in the snow",
	"night":       "at night",
	"sunset":      "at sunset",
	"sunrise":     "at sunrise",
	"street":      "on a street",
	"road":        "on a road",
	"stage":       "on stage",
	"underwater":  "underwater",
	"indoor":      "indoors",
	"indoors":     "indoors",
	"interior":    "indoors",
	"outdoor":     "outdoors",
	"outdoors":    "outdoors",
	"outside":     "outdoors",
	"countryside": "in the countryside",
	"desert":      "in the desert",
}

// SettingPhrase turns a scene identifier into a locative phrase ("on the beach")
func SettingPhrase(scene string) string {
	scene = types.NormalizeIdentifier(scene)
	if scene == "" {
		return ""
	}
	if p, ok := settingPhrases[scene]; ok {
		return p
	}
	return "in " + WithArticle(scene)
}
