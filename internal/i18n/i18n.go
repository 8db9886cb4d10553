// Package i18n holds the static translation tables and the lookup rules
// shared by the API and the notification renderer.
package i18n

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
)

// Lang is a supported interface language
type Lang string

// Supported languages
const (
	PT Lang = "pt"
	EN Lang = "en"
	DE Lang = "de"
	FR Lang = "fr"
)

// Default is consulted when a key is missing in the requested language
const Default = PT

var matcher = language.NewMatcher([]language.Tag{
	language.Portuguese,
	language.English,
	language.German,
	language.French,
})

// Languages lists every language with a table
func Languages() []Lang {
	return []Lang{PT, EN, DE, FR}
}

// Normalize maps a language code (or full tag such as "en-US") onto a
// supported language. Anything else becomes the default.
func Normalize(code string) Lang {
	base := strings.ToLower(strings.TrimSpace(code))
	if i := strings.IndexAny(base, "-_"); i > 0 {
		base = base[:i]
	}
	if _, ok := tables[Lang(base)]; ok {
		return Lang(base)
	}
	return Default
}

// Negotiate picks a supported language from an Accept-Language header
func Negotiate(acceptLanguage string) Lang {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default
	}
	return Languages()[idx]
}

// T resolves key for lang, falling back to the default language and then
// to the key itself.
func T(lang Lang, key string) string {
	if v, ok := tables[lang][key]; ok {
		return v
	}
	if v, ok := tables[Default][key]; ok {
		return v
	}
	return key
}

// Plural resolves key.one when n is 1 and key.other otherwise, replacing
// {count} with n.
func Plural(lang Lang, key string, n int) string {
	form := key + ".other"
	if n == 1 {
		form = key + ".one"
	}
	return strings.ReplaceAll(T(lang, form), "{count}", strconv.Itoa(n))
}

// Format resolves key and replaces each {name} placeholder from args
func Format(lang Lang, key string, args map[string]string) string {
	s := T(lang, key)
	for k, v := range args {
		s = strings.ReplaceAll(s, "{"+k+"}", v)
	}
	return s
}

// Table returns a copy of the merged table for lang, default entries
// filling the gaps.
func Table(lang Lang) map[string]string {
	out := make(map[string]string, len(tables[Default]))
	for k, v := range tables[Default] {
		out[k] = v
	}
	for k, v := range tables[lang] {
		out[k] = v
	}
	return out
}
