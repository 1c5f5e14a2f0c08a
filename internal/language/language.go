package language

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type entry struct {
	code2   string // ISO 639-1 (2-letter)
	nllb    string // NLLB-200 code with script
	xtts    string // XTTS v2 code
	display string
}

var languages = []entry{
	{"en", "eng_Latn", "en", "English"},
	{"es", "spa_Latn", "es", "Spanish"},
	{"fr", "fra_Latn", "fr", "French"},
	{"de", "deu_Latn", "de", "German"},
	{"it", "ita_Latn", "it", "Italian"},
	{"pt", "por_Latn", "pt", "Portuguese"},
	{"pl", "pol_Latn", "pl", "Polish"},
	{"tr", "tur_Latn", "tr", "Turkish"},
	{"ru", "rus_Cyrl", "ru", "Russian"},
	{"nl", "nld_Latn", "nl", "Dutch"},
	{"cs", "ces_Latn", "cs", "Czech"},
	{"ar", "arb_Arab", "ar", "Arabic"},
	{"zh", "zho_Hans", "zh-cn", "Chinese"},
	{"ja", "jpn_Jpan", "ja", "Japanese"},
	{"ko", "kor_Hang", "ko", "Korean"},
	{"hi", "hin_Deva", "hi", "Hindi"},
	{"hu", "hun_Latn", "hu", "Hungarian"},
}

var byCode2 = func() map[string]*entry {
	m := make(map[string]*entry, len(languages))
	for i := range languages {
		m[languages[i].code2] = &languages[i]
	}
	return m
}()

var titleCaser = cases.Title(language.English)

// Normalize lowercases and trims an ISO 639-1 code, resolving regional tags
// like en-US to their base language. Unknown input comes back trimmed but
// otherwise untouched so callers can report it.
func Normalize(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" || code == "auto" {
		return code
	}
	if tag, err := language.Parse(code); err == nil {
		if base, conf := tag.Base(); conf != language.No {
			return base.String()
		}
	}
	return code
}

// Supported reports whether the code maps to a known dubbing language.
func Supported(code string) bool {
	_, ok := byCode2[Normalize(code)]
	return ok
}

// DisplayName returns the English name for a language code, title-cased, or
// the code itself when unknown.
func DisplayName(code string) string {
	if e, ok := byCode2[Normalize(code)]; ok {
		return e.display
	}
	if code = strings.TrimSpace(code); code != "" {
		return titleCaser.String(code)
	}
	return code
}

// NLLBCode returns the NLLB-200 code (e.g. "eng_Latn") for an ISO code. The
// fallback guesses Latin script, matching how unmapped languages are most
// often written. Empty and auto input come back empty so callers can omit
// the language flag entirely.
func NLLBCode(code string) string {
	norm := Normalize(code)
	if norm == "" || norm == "auto" {
		return ""
	}
	if e, ok := byCode2[norm]; ok {
		return e.nllb
	}
	return norm + "_Latn"
}

// XTTSCode returns the XTTS v2 code for an ISO code, and whether XTTS can
// synthesize that language at all.
func XTTSCode(code string) (string, bool) {
	if e, ok := byCode2[Normalize(code)]; ok {
		return e.xtts, true
	}
	return "", false
}
