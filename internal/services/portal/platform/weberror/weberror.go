// Package weberror renders shared error responses for portal modules.
package weberror

import (
	stderrors "errors"
	"log"
	"net/http"
	"strings"

	"github.com/louisbranch/smsportal/internal/services/portal/module"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/apiclient"
	apperrors "github.com/louisbranch/smsportal/internal/services/portal/platform/errors"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/flash"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/httpx"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/i18n"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/pagerender"
	"github.com/louisbranch/smsportal/internal/services/portal/routepath"
	"github.com/louisbranch/smsportal/internal/services/portal/templates"
)

// SessionExpiredKey is the notice shown after a forced sign-out.
const SessionExpiredKey = "shell.flash.session_expired"

// ShouldRenderAppError reports whether status gets a full error page.
func ShouldRenderAppError(statusCode int) bool {
	return statusCode == http.StatusNotFound || statusCode >= http.StatusInternalServerError
}

// PublicMessage resolves a user-safe message for err: a localized key, the
// backend's own message, or the status text.
func PublicMessage(loc i18n.Localizer, err error) string {
	if err == nil {
		return ""
	}
	if loc != nil {
		if key := apperrors.LocalizationKey(err); key != "" {
			if localized := strings.TrimSpace(loc.Sprintf(key)); localized != "" {
				return localized
			}
		}
	}
	var apiErr *apiclient.Error
	if stderrors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
		return apiclient.Message(err)
	}
	statusCode := apperrors.HTTPStatus(err)
	if statusCode < http.StatusBadRequest {
		statusCode = http.StatusInternalServerError
	}
	if statusCode == http.StatusServiceUnavailable || statusCode == http.StatusGatewayTimeout || statusCode == http.StatusBadGateway {
		if loc != nil {
			return loc.Sprintf("shell.error.unavailable")
		}
	}
	return http.StatusText(statusCode)
}

// WriteAppError writes a full error page.
func WriteAppError(w http.ResponseWriter, r *http.Request, statusCode int, deps module.Dependencies) {
	writeAppError(w, r, statusCode, "", deps)
}

func writeAppError(w http.ResponseWriter, r *http.Request, statusCode int, message string, deps module.Dependencies) {
	if w == nil {
		return
	}
	if !ShouldRenderAppError(statusCode) {
		statusCode = http.StatusInternalServerError
	}
	loc := pagerender.Localizer(r)
	page := pagerender.Page{StatusCode: statusCode}
	if statusCode == http.StatusNotFound {
		page.Title = loc.Sprintf("shell.not_found.title")
		page.Fragment = templates.NotFoundState(loc)
	} else {
		page.Title = loc.Sprintf("shell.error.title")
		page.Fragment = templates.ErrorState(statusCode, message, loc)
	}
	if err := pagerender.WritePage(w, r, deps, page); err != nil {
		logger(deps).Printf("error page render failed status=%d request_id=%s err=%v", statusCode, httpx.RequestIDFrom(r), err)
		http.Error(w, http.StatusText(statusCode), statusCode)
	}
}

// WriteModuleError writes the response for a failed module operation. A
// rejected session sends the browser back to the login page with a notice.
func WriteModuleError(w http.ResponseWriter, r *http.Request, err error, deps module.Dependencies) {
	if w == nil {
		return
	}
	if apperrors.IsUnauthorized(err) {
		WriteSignedOut(w, r, deps)
		return
	}
	statusCode := apperrors.HTTPStatus(err)
	loc := pagerender.Localizer(r)
	if ShouldRenderAppError(statusCode) {
		logger(deps).Printf("module error status=%d path=%s request_id=%s err=%v", statusCode, requestPath(r), httpx.RequestIDFrom(r), err)
		writeAppError(w, r, statusCode, PublicMessage(loc, err), deps)
		return
	}
	http.Error(w, PublicMessage(loc, err), statusCode)
}

// WriteSignedOut redirects to the login page with the session-expired notice.
func WriteSignedOut(w http.ResponseWriter, r *http.Request, deps module.Dependencies) {
	flash.Write(w, r, flash.Warning(SessionExpiredKey), deps.SchemePolicy)
	httpx.WriteRedirect(w, r, routepath.Login)
}

func logger(deps module.Dependencies) *log.Logger {
	if deps.Logger != nil {
		return deps.Logger
	}
	return log.Default()
}

func requestPath(r *http.Request) string {
	if r == nil || r.URL == nil {
		return "-"
	}
	return r.URL.Path
}
