// Package sessioncookie manages the browser id cookie that keys each
// browser's session store.
package sessioncookie

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/requestmeta"
)

// Name is the browser id cookie.
const Name = "sms_browser"

// maxAge keeps the browser id for a year; the token it keys expires on its own.
const maxAge = 365 * 24 * 60 * 60

// Read returns the browser id when the cookie holds a valid one.
func Read(r *http.Request) (string, bool) {
	if r == nil {
		return "", false
	}
	cookie, err := r.Cookie(Name)
	if err != nil {
		return "", false
	}
	id, err := uuid.Parse(strings.TrimSpace(cookie.Value))
	if err != nil {
		return "", false
	}
	return id.String(), true
}

// Ensure returns the request's browser id, minting and setting a new one when
// the cookie is missing or malformed.
func Ensure(w http.ResponseWriter, r *http.Request, policy requestmeta.SchemePolicy) string {
	if id, ok := Read(r); ok {
		return id
	}
	id := uuid.NewString()
	Write(w, r, id, policy)
	return id
}

// Write sets the browser id cookie.
func Write(w http.ResponseWriter, r *http.Request, browserID string, policy requestmeta.SchemePolicy) {
	if w == nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     Name,
		Value:    strings.TrimSpace(browserID),
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   policy.IsHTTPS(r),
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the browser id cookie.
func Clear(w http.ResponseWriter, r *http.Request, policy requestmeta.SchemePolicy) {
	if w == nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     Name,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   policy.IsHTTPS(r),
		SameSite: http.SameSiteLaxMode,
	})
}
