// Package i18n resolves the request language and its message printer.
package i18n

import (
	"net/http"
	"strings"

	"github.com/louisbranch/smsportal/internal/platform/i18n/catalog"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/requestmeta"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// LangParam switches the language for the request and later ones.
	LangParam = "lang"
	// LangCookie remembers an explicit language choice.
	LangCookie = "sms_lang"
)

const langCookieMaxAge = 365 * 24 * 60 * 60

// Localizer formats catalog messages. *message.Printer implements it.
type Localizer interface {
	Sprintf(key message.Reference, a ...any) string
}

var (
	supported = supportedTags()
	matcher   = language.NewMatcher(supported)
)

func supportedTags() []language.Tag {
	tags := []language.Tag{language.MustParse(catalog.BaseLocale)}
	for _, locale := range catalog.Default().Locales() {
		if locale == catalog.BaseLocale {
			continue
		}
		tags = append(tags, language.MustParse(locale))
	}
	return tags
}

// Supported returns the languages with catalogs, base locale first.
func Supported() []language.Tag {
	return append([]language.Tag(nil), supported...)
}

// Default returns the base language.
func Default() language.Tag {
	return supported[0]
}

// Match returns the supported language for raw, if any.
func Match(raw string) (language.Tag, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return language.Tag{}, false
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return language.Tag{}, false
	}
	_, index, confidence := matcher.Match(tag)
	if confidence == language.No {
		return language.Tag{}, false
	}
	return supported[index], true
}

// ResolveTag picks the request language from the lang query parameter, then
// the language cookie, then Accept-Language.
func ResolveTag(r *http.Request) language.Tag {
	if r == nil {
		return Default()
	}
	if tag, ok := Match(r.URL.Query().Get(LangParam)); ok {
		return tag
	}
	if cookie, err := r.Cookie(LangCookie); err == nil {
		if tag, ok := Match(cookie.Value); ok {
			return tag
		}
	}
	accepted, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	if err != nil || len(accepted) == 0 {
		return Default()
	}
	_, index, confidence := matcher.Match(accepted...)
	if confidence == language.No {
		return Default()
	}
	return supported[index]
}

// ResolveLocalizer resolves the request language and remembers an explicit
// ?lang choice in a cookie. It must run before the response status is written.
func ResolveLocalizer(w http.ResponseWriter, r *http.Request, policy requestmeta.SchemePolicy) (Localizer, language.Tag) {
	tag := ResolveTag(r)
	if w != nil && r != nil {
		if explicit, ok := Match(r.URL.Query().Get(LangParam)); ok {
			http.SetCookie(w, &http.Cookie{
				Name:     LangCookie,
				Value:    explicit.String(),
				Path:     "/",
				MaxAge:   langCookieMaxAge,
				HttpOnly: true,
				Secure:   policy.IsHTTPS(r),
				SameSite: http.SameSiteLaxMode,
			})
		}
	}
	return Printer(tag), tag
}

// Printer returns a message printer for tag.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag)
}
