package apiclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/louisbranch/smsportal/internal/services/portal/identity"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/apiclient"
	"github.com/louisbranch/smsportal/internal/testkit/smsfake"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newClient(t *testing.T, baseURL string, opts ...apiclient.Option) *apiclient.Client {
	t.Helper()
	client, err := apiclient.New(baseURL, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return client
}

func TestNewValidatesBaseURL(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"ftp://example.com", "http://", "::bad"} {
		if _, err := apiclient.New(raw); err == nil {
			t.Fatalf("New(%q) expected error", raw)
		}
	}
	client := newClient(t, "")
	if got := client.BaseURL(); got != apiclient.DefaultBaseURL {
		t.Fatalf("BaseURL() = %q, want %q", got, apiclient.DefaultBaseURL)
	}
}

func TestRequestsCarryJSONContentTypeAndBearer(t *testing.T) {
	t.Parallel()

	var gotAuth, gotType, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		gotPath = r.URL.Path
		_, _ = io.WriteString(w, `[]`)
	}))
	t.Cleanup(srv.Close)

	client := newClient(t, srv.URL+"/sms/api/")
	if _, err := client.Departments(apiclient.WithToken(context.Background(), "tok-1")); err != nil {
		t.Fatalf("Departments() error = %v", err)
	}
	if gotAuth != "Bearer tok-1" {
		t.Fatalf("Authorization = %q, want %q", gotAuth, "Bearer tok-1")
	}
	if gotType != "application/json" {
		t.Fatalf("Content-Type = %q, want application/json", gotType)
	}
	if gotPath != "/sms/api/departments" {
		t.Fatalf("path = %q, want %q", gotPath, "/sms/api/departments")
	}
}

func TestRequestsWithoutTokenOmitAuthorization(t *testing.T) {
	t.Parallel()

	var sawAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawAuth = r.Header["Authorization"]
		_, _ = io.WriteString(w, `{"token":"abc"}`)
	}))
	t.Cleanup(srv.Close)

	client := newClient(t, srv.URL)
	if _, err := client.Login(context.Background(), "a@b.com", "pw"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if sawAuth {
		t.Fatal("expected no Authorization header without a token")
	}
}

func TestLoginAgainstFakeBackend(t *testing.T) {
	t.Parallel()

	backend := smsfake.New(t)
	client := newClient(t, backend.URL())

	result, err := client.Login(context.Background(), "admin@gmail.com", smsfake.DemoPassword)
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	profile, err := client.CurrentUser(apiclient.WithToken(context.Background(), result.Token))
	if err != nil {
		t.Fatalf("CurrentUser() error = %v", err)
	}
	if profile.UserType != identity.RoleAdmin {
		t.Fatalf("UserType = %q, want %q", profile.UserType, identity.RoleAdmin)
	}
}

func TestLoginRejectedSurfacesBackendMessageAndSignal(t *testing.T) {
	t.Parallel()

	backend := smsfake.New(t)
	client := newClient(t, backend.URL())

	var events []apiclient.UnauthorizedEvent
	client.Subscribe(func(e apiclient.UnauthorizedEvent) { events = append(events, e) })

	_, err := client.Login(context.Background(), "bad@x.com", "wrong")
	if !errors.Is(err, apiclient.ErrUnauthorized) {
		t.Fatalf("Login() error = %v, want ErrUnauthorized", err)
	}
	if got := apiclient.Message(err); got != "Invalid credentials" {
		t.Fatalf("Message() = %q, want %q", got, "Invalid credentials")
	}
	if len(events) != 1 || events[0].Token != "" || events[0].Path != "/auth/login" {
		t.Fatalf("events = %+v, want one tokenless /auth/login event", events)
	}
}

func TestUnauthorizedEmitsEventWithToken(t *testing.T) {
	t.Parallel()

	backend := smsfake.New(t)
	client := newClient(t, backend.URL())
	token, err := backend.IssueToken("faculty.cse@gmail.com")
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	backend.Revoke(token)

	var mu sync.Mutex
	var got []apiclient.UnauthorizedEvent
	unsubscribe := client.Subscribe(func(e apiclient.UnauthorizedEvent) {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
	})

	_, err = client.Users(apiclient.WithToken(context.Background(), token))
	if !errors.Is(err, apiclient.ErrUnauthorized) {
		t.Fatalf("Users() error = %v, want ErrUnauthorized", err)
	}
	mu.Lock()
	if len(got) != 1 || got[0].Token != token || got[0].Method != http.MethodGet || got[0].Path != "/users" {
		t.Fatalf("events = %+v", got)
	}
	mu.Unlock()

	unsubscribe()
	unsubscribe()
	_, _ = client.Users(apiclient.WithToken(context.Background(), token))
	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 {
		t.Fatalf("events after unsubscribe = %d, want 1", len(got))
	}
}

func TestNon2xxErrorsUseBackendMessageOrFallback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{name: "backend message", status: http.StatusBadRequest, body: `{"error":"Department code exists"}`, wantMessage: "Department code exists"},
		{name: "empty body", status: http.StatusInternalServerError, body: ``, wantMessage: apiclient.FallbackErrorMessage},
		{name: "html body", status: http.StatusBadGateway, body: `<html>bad gateway</html>`, wantMessage: apiclient.FallbackErrorMessage},
		{name: "non-string error", status: http.StatusConflict, body: `{"error":{"code":1}}`, wantMessage: apiclient.FallbackErrorMessage},
		{name: "blank error", status: http.StatusForbidden, body: `{"error":"  "}`, wantMessage: apiclient.FallbackErrorMessage},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))
			t.Cleanup(srv.Close)

			_, err := newClient(t, srv.URL).Departments(context.Background())
			var apiErr *apiclient.Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %v, want *apiclient.Error", err)
			}
			if apiErr.Status != tc.status {
				t.Fatalf("Status = %d, want %d", apiErr.Status, tc.status)
			}
			if apiErr.Message != tc.wantMessage {
				t.Fatalf("Message = %q, want %q", apiErr.Message, tc.wantMessage)
			}
			if errors.Is(err, apiclient.ErrUnauthorized) {
				t.Fatal("non-401 error should not match ErrUnauthorized")
			}
		})
	}
}

func TestTransportFailureIsNotAnAPIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newClient(t, url).Users(context.Background())
	var transport *apiclient.TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("error = %v, want *apiclient.TransportError", err)
	}
	if got := apiclient.Message(err); got != apiclient.FallbackErrorMessage {
		t.Fatalf("Message() = %q, want %q", got, apiclient.FallbackErrorMessage)
	}
}

func TestPassthroughSendsPayloadVerbatim(t *testing.T) {
	t.Parallel()

	var gotBody string
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		gotMethod = r.Method
		_, _ = io.WriteString(w, `{"id":9,"extra":{"nested":true}}`)
	}))
	t.Cleanup(srv.Close)

	payload := json.RawMessage(`{"department_code":"ME","unknown_field":1}`)
	out, err := newClient(t, srv.URL).UpdateDepartment(context.Background(), 9, payload)
	if err != nil {
		t.Fatalf("UpdateDepartment() error = %v", err)
	}
	if gotMethod != http.MethodPut || gotBody != string(payload) {
		t.Fatalf("request = %s %s", gotMethod, gotBody)
	}
	if string(out) != `{"id":9,"extra":{"nested":true}}` {
		t.Fatalf("response = %s", out)
	}
}

func TestPassthroughRejectsInvalidJSON(t *testing.T) {
	t.Parallel()

	client := newClient(t, "http://127.0.0.1:1")
	if _, err := client.CreateUser(context.Background(), json.RawMessage(`{bad`)); err == nil {
		t.Fatal("expected invalid payload error")
	}
}

func TestActivateAndBulkBodies(t *testing.T) {
	t.Parallel()

	bodies := map[string]string{}
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies[r.Method+" "+r.URL.Path] = strings.TrimSpace(string(data))
		mu.Unlock()
		_, _ = io.WriteString(w, `{}`)
	}))
	t.Cleanup(srv.Close)
	client := newClient(t, srv.URL)

	if _, err := client.ActivateUsers(context.Background(), []int64{4, 5}); err != nil {
		t.Fatalf("ActivateUsers() error = %v", err)
	}
	if _, err := client.CreateUsers(context.Background(), []json.RawMessage{json.RawMessage(`{"email":"x@y.z"}`)}); err != nil {
		t.Fatalf("CreateUsers() error = %v", err)
	}
	if got := bodies["PUT /users/activate"]; got != `{"user_ids":[4,5]}` {
		t.Fatalf("activate body = %s", got)
	}
	if got := bodies["POST /users/bulk"]; got != `{"users":[{"email":"x@y.z"}]}` {
		t.Fatalf("bulk body = %s", got)
	}
	if _, err := client.ActivateUsers(context.Background(), nil); err == nil {
		t.Fatal("expected empty activate error")
	}
}

func TestCRUDAgainstFakeBackend(t *testing.T) {
	t.Parallel()

	backend := smsfake.New(t)
	client := newClient(t, backend.URL())
	token, err := backend.IssueToken("admin@gmail.com")
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	ctx := apiclient.WithToken(context.Background(), token)

	dept, err := client.Department(ctx, 1)
	if err != nil || dept.DepartmentCode != "CSE" {
		t.Fatalf("Department() = %+v, %v", dept, err)
	}
	if _, err := client.CreateDepartment(ctx, json.RawMessage(`{"department_code":"ME"}`)); err != nil {
		t.Fatalf("CreateDepartment() error = %v", err)
	}
	if err := client.DeleteDepartment(ctx, 2); err != nil {
		t.Fatalf("DeleteDepartment() error = %v", err)
	}
	if _, err := client.UpdateUser(ctx, 4, json.RawMessage(`{"full_name":"A"}`)); err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}
	if err := client.DeleteUser(ctx, 4); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}
	if _, err := client.UpdateProfile(ctx, json.RawMessage(`{"full_name":"Root"}`)); err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	users, err := client.Users(ctx)
	if err != nil || len(users) == 0 {
		t.Fatalf("Users() = %v, %v", users, err)
	}
	if _, err := client.Department(ctx, 99); err == nil {
		t.Fatal("expected missing department error")
	}
}

func TestClientSpansAndTraceContext(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	var traceparent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceparent = r.Header.Get("Traceparent")
		_, _ = io.WriteString(w, `[]`)
	}))
	t.Cleanup(srv.Close)

	client := newClient(t, srv.URL,
		apiclient.WithTracerProvider(provider),
		apiclient.WithPropagator(propagation.TraceContext{}),
	)
	if _, err := client.Users(context.Background()); err != nil {
		t.Fatalf("Users() error = %v", err)
	}
	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("ended spans = %d, want 1", len(spans))
	}
	if spans[0].Name() != "sms GET" {
		t.Fatalf("span name = %q, want %q", spans[0].Name(), "sms GET")
	}
	if traceparent == "" {
		t.Fatal("expected traceparent header on outbound request")
	}
}
