// Package smsfake runs an in-process SMS REST backend for tests.
//
// The fake issues HS256 JWT bearer tokens, seeds the demo accounts used by the
// login page, records every call it serves, and can be told to fail or stall
// individual routes.
package smsfake

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/louisbranch/smsportal/internal/services/portal/identity"
)

// BasePath is the API root the fake serves under, matching the default
// backend layout.
const BasePath = "/sms/api"

// DemoPassword is the password shared by every seeded account.
const DemoPassword = "adminpass"

var signingKey = []byte("smsfake-signing-key")

// Department mirrors the backend department row.
type Department struct {
	ID             int64  `json:"id"`
	DepartmentCode string `json:"department_code"`
	DepartmentName string `json:"department_name"`
	HODName        string `json:"hod_name"`
	HODEmail       string `json:"hod_email"`
}

type account struct {
	profile  identity.Profile
	password string
}

type failure struct {
	status  int
	message string
}

// Backend is a running fake SMS API.
type Backend struct {
	server *httptest.Server

	mu          sync.Mutex
	accounts    []account
	departments []Department
	revoked     map[string]bool
	calls       []string
	failures    map[string]failure
	gates       map[string]chan struct{}
	tokenTTL    time.Duration
	nextID      int64
}

// New starts a seeded backend that is closed when tb finishes.
func New(tb testing.TB) *Backend {
	tb.Helper()
	b := &Backend{
		revoked:  map[string]bool{},
		failures: map[string]failure{},
		gates:    map[string]chan struct{}{},
		tokenTTL: time.Hour,
	}
	b.seed()
	b.server = httptest.NewServer(b.routes())
	tb.Cleanup(b.Close)
	return b
}

// Close stops the server and releases any held routes.
func (b *Backend) Close() {
	b.mu.Lock()
	for key, gate := range b.gates {
		close(gate)
		delete(b.gates, key)
	}
	b.mu.Unlock()
	b.server.Close()
}

// URL returns the API base URL, including BasePath.
func (b *Backend) URL() string {
	return b.server.URL + BasePath
}

func (b *Backend) seed() {
	cse := int64(1)
	ece := int64(2)
	b.departments = []Department{
		{ID: cse, DepartmentCode: "CSE", DepartmentName: "Computer Science", HODName: "Dr. Rao", HODEmail: "hod.cse@gmail.com"},
		{ID: ece, DepartmentCode: "ECE", DepartmentName: "Electronics", HODName: "Dr. Iyer", HODEmail: "hod.ece@gmail.com"},
	}
	b.accounts = []account{
		{profile: identity.Profile{ID: 1, FullName: "System Admin", Email: "admin@gmail.com", UserType: identity.RoleAdmin, IsActive: true}},
		{profile: identity.Profile{ID: 2, FullName: "Dr. Rao", Email: "hod.cse@gmail.com", UserType: identity.RoleHOD, DepartmentID: &cse, IsActive: true}},
		{profile: identity.Profile{ID: 3, FullName: "Prof. Nair", Email: "faculty.cse@gmail.com", UserType: identity.RoleFaculty, DepartmentID: &cse, IsActive: true}},
		{profile: identity.Profile{ID: 4, FullName: "Asha Student", Email: "student1@gmail.com", UserType: identity.RoleStudent, DepartmentID: &cse, IsActive: true}},
		{profile: identity.Profile{ID: 5, FullName: "Ravi Student", Email: "student2@gmail.com", UserType: identity.RoleStudent, DepartmentID: &ece, IsActive: false}},
	}
	for i := range b.accounts {
		b.accounts[i].password = DemoPassword
	}
	b.nextID = int64(len(b.accounts))
}

// Calls returns every "METHOD /path" served so far, relative to BasePath.
func (b *Backend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

// CallCount reports how many times "METHOD /path" was served.
func (b *Backend) CallCount(call string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		if c == call {
			n++
		}
	}
	return n
}

// Fail makes "METHOD /path" answer with status and {"error": message}. An
// empty message sends an empty body.
func (b *Backend) Fail(call string, status int, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[call] = failure{status: status, message: message}
}

// Hold blocks "METHOD /path" until the returned release func is called.
func (b *Backend) Hold(call string) (release func()) {
	gate := make(chan struct{})
	b.mu.Lock()
	b.gates[call] = gate
	b.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			if b.gates[call] == gate {
				delete(b.gates, call)
				close(gate)
			}
			b.mu.Unlock()
		})
	}
}

// Revoke makes the backend reject token with 401 from now on.
func (b *Backend) Revoke(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revoked[token] = true
}

// SetTokenTTL changes the lifetime of tokens issued afterwards. A negative TTL
// issues tokens that are already expired.
func (b *Backend) SetTokenTTL(ttl time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokenTTL = ttl
}

// IssueToken mints a token for the seeded account with email.
func (b *Backend) IssueToken(email string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	acct, ok := b.findAccountLocked(email)
	if !ok {
		return "", fmt.Errorf("unknown account %q", email)
	}
	return b.signLocked(acct.profile.ID)
}

// UserActive reports the current is_active flag for id.
func (b *Backend) UserActive(id int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, acct := range b.accounts {
		if acct.profile.ID == id {
			return acct.profile.IsActive
		}
	}
	return false
}

func (b *Backend) signLocked(userID int64) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(b.tokenTTL)),
		ID:        strconv.FormatInt(now.UnixNano(), 36),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
}

func (b *Backend) findAccountLocked(email string) (account, bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, acct := range b.accounts {
		if strings.EqualFold(acct.profile.Email, email) {
			return acct, true
		}
	}
	return account{}, false
}

func (b *Backend) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+BasePath+"/auth/login", b.handleLogin)
	mux.HandleFunc("GET "+BasePath+"/auth/me", b.authed(b.handleMe))
	mux.HandleFunc("PUT "+BasePath+"/auth/me", b.authed(b.handleUpdateMe))
	mux.HandleFunc("GET "+BasePath+"/departments", b.authed(b.handleDepartments))
	mux.HandleFunc("POST "+BasePath+"/departments", b.admin(b.handleEcho(http.StatusCreated)))
	mux.HandleFunc("GET "+BasePath+"/departments/{id}", b.authed(b.handleDepartment))
	mux.HandleFunc("PUT "+BasePath+"/departments/{id}", b.admin(b.handleEcho(http.StatusOK)))
	mux.HandleFunc("DELETE "+BasePath+"/departments/{id}", b.admin(b.handleDeleted))
	mux.HandleFunc("GET "+BasePath+"/users", b.authed(b.handleUsers))
	mux.HandleFunc("POST "+BasePath+"/users", b.admin(b.handleEcho(http.StatusCreated)))
	mux.HandleFunc("POST "+BasePath+"/users/bulk", b.admin(b.handleBulk))
	mux.HandleFunc("PUT "+BasePath+"/users/activate", b.admin(b.handleActivate))
	mux.HandleFunc("PUT "+BasePath+"/users/{id}", b.admin(b.handleEcho(http.StatusOK)))
	mux.HandleFunc("DELETE "+BasePath+"/users/{id}", b.admin(b.handleDeleted))
	return b.recordCalls(mux)
}

func (b *Backend) recordCalls(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := r.Method + " " + strings.TrimPrefix(r.URL.Path, BasePath)
		b.mu.Lock()
		b.calls = append(b.calls, call)
		fail, failing := b.failures[call]
		gate := b.gates[call]
		b.mu.Unlock()

		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}
		if failing {
			if fail.message == "" {
				w.WriteHeader(fail.status)
				return
			}
			writeJSON(w, fail.status, map[string]string{"error": fail.message})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) authed(next func(http.ResponseWriter, *http.Request, identity.Profile)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := b.authenticate(r)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			return
		}
		next(w, r, profile)
	}
}

func (b *Backend) admin(next func(http.ResponseWriter, *http.Request, identity.Profile)) http.HandlerFunc {
	return b.authed(func(w http.ResponseWriter, r *http.Request, profile identity.Profile) {
		if !profile.IsAdmin() {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "Forbidden"})
			return
		}
		next(w, r, profile)
	})
}

func (b *Backend) authenticate(r *http.Request) (identity.Profile, error) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		return identity.Profile{}, errors.New("missing bearer token")
	}
	claims := jwt.RegisteredClaims{}
	if _, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) { return signingKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})); err != nil {
		return identity.Profile{}, err
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return identity.Profile{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.revoked[raw] {
		return identity.Profile{}, errors.New("token revoked")
	}
	for _, acct := range b.accounts {
		if acct.profile.ID == id {
			return acct.profile, nil
		}
	}
	return identity.Profile{}, errors.New("unknown subject")
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Email == "" || body.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Email and password are required"})
		return
	}
	b.mu.Lock()
	acct, ok := b.findAccountLocked(body.Email)
	if !ok || acct.password != body.Password {
		b.mu.Unlock()
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
		return
	}
	if !acct.profile.IsActive {
		b.mu.Unlock()
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "Account is inactive"})
		return
	}
	token, err := b.signLocked(acct.profile.ID)
	b.mu.Unlock()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": acct.profile})
}

func (b *Backend) handleMe(w http.ResponseWriter, _ *http.Request, profile identity.Profile) {
	writeJSON(w, http.StatusOK, profile)
}

func (b *Backend) handleUpdateMe(w http.ResponseWriter, r *http.Request, profile identity.Profile) {
	var patch struct {
		FullName *string `json:"full_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON"})
		return
	}
	b.mu.Lock()
	for i := range b.accounts {
		if b.accounts[i].profile.ID == profile.ID && patch.FullName != nil {
			b.accounts[i].profile.FullName = *patch.FullName
			profile = b.accounts[i].profile
		}
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, profile)
}

func (b *Backend) handleDepartments(w http.ResponseWriter, _ *http.Request, _ identity.Profile) {
	b.mu.Lock()
	out := append([]Department(nil), b.departments...)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) handleDepartment(w http.ResponseWriter, r *http.Request, _ identity.Profile) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid department id"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, dept := range b.departments {
		if dept.ID == id {
			writeJSON(w, http.StatusOK, dept)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "Department not found"})
}

type userRow struct {
	ID             int64         `json:"id"`
	FullName       string        `json:"full_name"`
	Email          string        `json:"email"`
	UserType       identity.Role `json:"user_type"`
	DepartmentName *string       `json:"department_name"`
	IsActive       bool          `json:"is_active"`
}

func (b *Backend) handleUsers(w http.ResponseWriter, _ *http.Request, _ identity.Profile) {
	b.mu.Lock()
	rows := make([]userRow, 0, len(b.accounts))
	for _, acct := range b.accounts {
		row := userRow{
			ID:       acct.profile.ID,
			FullName: acct.profile.FullName,
			Email:    acct.profile.Email,
			UserType: acct.profile.UserType,
			IsActive: acct.profile.IsActive,
		}
		if acct.profile.DepartmentID != nil {
			for _, dept := range b.departments {
				if dept.ID == *acct.profile.DepartmentID {
					name := dept.DepartmentName
					row.DepartmentName = &name
				}
			}
		}
		rows = append(rows, row)
	}
	b.mu.Unlock()
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	writeJSON(w, http.StatusOK, rows)
}

func (b *Backend) handleActivate(w http.ResponseWriter, r *http.Request, _ identity.Profile) {
	var body struct {
		UserIDs []int64 `json:"user_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.UserIDs) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_ids is required"})
		return
	}
	b.mu.Lock()
	activated := 0
	for _, id := range body.UserIDs {
		for i := range b.accounts {
			if b.accounts[i].profile.ID == id && !b.accounts[i].profile.IsActive {
				b.accounts[i].profile.IsActive = true
				activated++
			}
		}
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"message": "Users activated successfully", "activated": activated})
}

func (b *Backend) handleBulk(w http.ResponseWriter, r *http.Request, _ identity.Profile) {
	var body struct {
		Users []json.RawMessage `json:"users"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Users) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "users is required"})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"created": len(body.Users)})
}

func (b *Backend) handleEcho(status int) func(http.ResponseWriter, *http.Request, identity.Profile) {
	return func(w http.ResponseWriter, r *http.Request, _ identity.Profile) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON"})
			return
		}
		b.mu.Lock()
		b.nextID++
		id := b.nextID
		b.mu.Unlock()
		if _, ok := body["id"]; !ok {
			body["id"] = id
		}
		writeJSON(w, status, body)
	}
}

func (b *Backend) handleDeleted(w http.ResponseWriter, _ *http.Request, _ identity.Profile) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
