package sessioncookie

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/requestmeta"
)

func TestEnsureMintsAndReusesBrowserID(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	id := Ensure(rr, req, requestmeta.SchemePolicy{})
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("Ensure() = %q, want uuid", id)
	}
	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != Name || cookies[0].Value != id {
		t.Fatalf("cookies = %+v, want %s=%s", cookies, Name, id)
	}
	if !cookies[0].HttpOnly || cookies[0].SameSite != http.SameSiteLaxMode {
		t.Fatalf("cookie flags = %+v", cookies[0])
	}

	next := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	next.AddCookie(cookies[0])
	rr2 := httptest.NewRecorder()
	if got := Ensure(rr2, next, requestmeta.SchemePolicy{}); got != id {
		t.Fatalf("Ensure() = %q, want %q", got, id)
	}
	if len(rr2.Result().Cookies()) != 0 {
		t.Fatal("existing browser id must not be rewritten")
	}
}

func TestReadRejectsMalformedID(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: Name, Value: "../../etc"})
	if _, ok := Read(req); ok {
		t.Fatal("expected malformed id to be rejected")
	}
	if _, ok := Read(nil); ok {
		t.Fatal("expected nil request to have no id")
	}
}

func TestWriteSecureBehindTrustedProxy(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rr := httptest.NewRecorder()
	Write(rr, req, uuid.NewString(), requestmeta.SchemePolicy{TrustForwardedProto: true})
	if cookies := rr.Result().Cookies(); len(cookies) != 1 || !cookies[0].Secure {
		t.Fatalf("cookies = %+v, want one secure cookie", cookies)
	}
}

func TestClearExpiresCookie(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	Clear(rr, httptest.NewRequest(http.MethodGet, "/", nil), requestmeta.SchemePolicy{})
	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Fatalf("cookies = %+v, want expired cookie", cookies)
	}
}
