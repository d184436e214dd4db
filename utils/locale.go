package utils

import (
	"fmt"
	"net/http"

	"golang.org/x/text/language"
)

// Localizer picks the best supported locale for a request.
type Localizer struct {
	tags    []language.Tag
	matcher language.Matcher
}

// NewLocalizer accepts BCP 47 tags; the first one is the fallback.
func NewLocalizer(locales []string) (*Localizer, error) {
	if len(locales) == 0 {
		return nil, fmt.Errorf("no locales configured")
	}
	tags := make([]language.Tag, 0, len(locales))
	for _, l := range locales {
		tag, err := language.Parse(l)
		if err != nil {
			return nil, fmt.Errorf("parse locale %q: %w", l, err)
		}
		tags = append(tags, tag)
	}
	return &Localizer{tags: tags, matcher: language.NewMatcher(tags)}, nil
}

// Default is the fallback locale.
func (l *Localizer) Default() string {
	return l.tags[0].String()
}

// Negotiate prefers an explicit ?locale= parameter, then Accept-Language.
func (l *Localizer) Negotiate(r *http.Request) string {
	var wanted []language.Tag
	if q := r.URL.Query().Get("locale"); q != "" {
		if tag, err := language.Parse(q); err == nil {
			wanted = append(wanted, tag)
		}
	}
	if accept, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language")); err == nil {
		wanted = append(wanted, accept...)
	}
	_, idx, conf := l.matcher.Match(wanted...)
	if conf == language.No {
		return l.Default()
	}
	return l.tags[idx].String()
}
