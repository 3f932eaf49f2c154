package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/uptrace/bun"

	"condowater/frontend/login"
	"condowater/infrastructure/audit"
	"condowater/infrastructure/backend"
	"condowater/infrastructure/cache"
	"condowater/infrastructure/rbac"
	sessioncookie "condowater/infrastructure/session"
	"condowater/infrastructure/sqlite"
	"condowater/infrastructure/wizard"
	"condowater/models"
)

const (
	adminEmail    = "admin@condo.test"
	viewerEmail   = "portaria@condo.test"
	testPassword  = "Hidrometro#2026"
	backendSecret = "integration-secret"
)

// fakeBilling stands in for the billing backend. Tokens it issues are signed
// with backendSecret and expire after tokenTTL.
type fakeBilling struct {
	mu       sync.Mutex
	tokenTTL time.Duration
	payloads []models.ProcessReadingsPayload
	auth     []string
}

func (f *fakeBilling) issueToken(email, profile string) string {
	f.mu.Lock()
	ttl := f.tokenTTL
	f.mu.Unlock()
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, backend.Claims{
		UserID:  1,
		Email:   email,
		Profile: profile,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}).SignedString([]byte(backendSecret))
	return token
}

func (f *fakeBilling) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.auth = append(f.auth, r.Header.Get("Authorization"))
		f.mu.Unlock()

		switch {
		case r.URL.Path == "/api/login":
			var req models.LoginRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			profile := "user"
			if req.EmailUsuario == adminEmail {
				profile = "admin"
			}
			_ = json.NewEncoder(w).Encode(models.LoginResponse{
				Message: "Login bem-sucedido!",
				Token:   f.issueToken(req.EmailUsuario, profile),
				User:    models.BackendUser{NomeUsuario: "Operador", EmailUsuario: req.EmailUsuario, PerfilUsuario: profile},
			})
		case r.URL.Path == "/api/latest-readings":
			_, _ = w.Write([]byte(`[
  {"codigo_lote":1,"nome_lote":"Lote 1","leitura_anterior":100,"data_ref":"2025-07-01","consumo_medido_m3":10,"media_movel_6_meses_anteriores":10,"media_movel_12_meses_anteriores":10},
  {"codigo_lote":2,"nome_lote":"Lote 2","leitura_anterior":200,"data_ref":"2025-07-01","consumo_medido_m3":9,"media_movel_6_meses_anteriores":9,"media_movel_12_meses_anteriores":9}
]`))
		case r.URL.Path == "/api/process-readings":
			var p models.ProcessReadingsPayload
			_ = json.NewDecoder(r.Body).Decode(&p)
			f.mu.Lock()
			f.payloads = append(f.payloads, p)
			f.mu.Unlock()
			_, _ = w.Write([]byte(`{"message":"Leituras processadas","logs":[{"status":"OK","message":"Pipeline ok"}],"data":[{"codigo_lote":1,"nome_lote":"Lote 1","total_rs":55.3},{"codigo_lote":2,"nome_lote":"Lote 2","total_rs":41}]}`))
		case r.URL.Path == "/api/units":
			_, _ = w.Write([]byte(`[{"codigo_lote":1,"nome_lote":"Lote 1"},{"codigo_lote":2,"nome_lote":"Lote 2"}]`))
		case strings.HasPrefix(r.URL.Path, "/api/monthly-summary/"):
			_, _ = w.Write([]byte(`{"month_year":"Agosto-2025","total_condo_cost_rs":96.3,"total_condo_consumption_m3":21.5,"unit_details":[{"codigo_lote":1,"display_name":"Lote 1","cost_rs":55.3,"consumption_m3":12}]}`))
		case strings.HasPrefix(r.URL.Path, "/api/report/unit/"):
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = w.Write([]byte("%PDF-1.4 fake"))
		default:
			http.NotFound(w, r)
		}
	}
}

func (f *fakeBilling) submitted() []models.ProcessReadingsPayload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ProcessReadingsPayload(nil), f.payloads...)
}

type integrationEnv struct {
	server  *httptest.Server
	db      *sqlite.DB
	billing *fakeBilling
	wizards *wizard.Service
}

func setupIntegrationServer(t *testing.T) (*integrationEnv, *http.Client) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "server-integration.db")
	db, err := sqlite.OpenDB(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	migrationsDir := filepath.Join(filepath.Dir(file), "..", "sqlite", "migrations")
	if err := sqlite.ApplyMigrations(context.Background(), db, migrationsDir); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	if err := login.UpsertUserPasswordHash(context.Background(), db, adminEmail, "Síndico", rbac.RoleAdmin, testPassword); err != nil {
		t.Fatalf("seed admin user: %v", err)
	}
	if err := login.UpsertUserPasswordHash(context.Background(), db, viewerEmail, "Portaria", rbac.RoleViewer, testPassword); err != nil {
		t.Fatalf("seed viewer user: %v", err)
	}

	billing := &fakeBilling{tokenTTL: time.Hour}
	backendSrv := httptest.NewServer(billing.handler())
	client, err := backend.NewClient(backend.Config{BaseURL: backendSrv.URL, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("new backend client: %v", err)
	}

	sessionCache := cache.NewUserSessionCache()
	rbacCache := cache.NewRbacRolesCache()
	wizards := wizard.NewService(wizard.NewStore(), 5*time.Second)

	s := NewServer("127.0.0.1:0", Deps{
		DB:           db,
		SessionCache: sessionCache,
		UserCache:    cache.NewUserCache(),
		RbacCache:    rbacCache,
		Rbac:         rbac.New(rbacCache),
		Audit:        audit.NewService(),
		Backend:      client,
		Tokens:       sessioncookie.NewSQLiteTokenStorage(db, sessionCache),
		Wizards:      wizards,
		JWTSecret:    []byte(backendSecret),
	})
	ts := httptest.NewServer(s.router)
	env := &integrationEnv{server: ts, db: db, billing: billing, wizards: wizards}
	t.Cleanup(func() {
		env.server.Close()
		backendSrv.Close()
		_ = env.db.Close()
	})

	return env, newHTTPClient(t)
}

func newHTTPClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func postForm(t *testing.T, client *http.Client, baseURL, path string, data url.Values) *http.Response {
	t.Helper()
	if data == nil {
		data = url.Values{}
	}
	if token := csrfToken(t, client, baseURL); token != "" {
		data.Set("_csrf", token)
	}
	resp, err := client.PostForm(baseURL+path, data)
	if err != nil {
		t.Fatalf("POST %s failed: %v", path, err)
	}
	return resp
}

func postMultipartFile(t *testing.T, client *http.Client, baseURL, path, fieldName, fileName string, fileContents []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if token := csrfToken(t, client, baseURL); token != "" {
		if err := writer.WriteField("_csrf", token); err != nil {
			t.Fatalf("write csrf multipart field: %v", err)
		}
	}

	part, err := writer.CreateFormFile(fieldName, fileName)
	if err != nil {
		t.Fatalf("create multipart file field: %v", err)
	}
	if _, err := part.Write(fileContents); err != nil {
		t.Fatalf("write multipart file content: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+path, &body)
	if err != nil {
		t.Fatalf("build multipart request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("POST multipart %s failed: %v", path, err)
	}
	return resp
}

func get(t *testing.T, client *http.Client, baseURL, path string) *http.Response {
	t.Helper()
	resp, err := client.Get(baseURL + path)
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(raw)
}

func csrfToken(t *testing.T, client *http.Client, baseURL string) string {
	t.Helper()
	u, err := url.Parse(baseURL)
	if err != nil {
		t.Fatalf("parse base url: %v", err)
	}
	for _, c := range client.Jar.Cookies(u) {
		if c.Name == csrfCookieName {
			return c.Value
		}
	}
	return ""
}

func loginAs(t *testing.T, client *http.Client, baseURL, username, password, landing string) {
	t.Helper()

	resp := get(t, client, baseURL, "/login")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected login page 200, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	resp = postForm(t, client, baseURL, "/login", url.Values{
		"username": {username},
		"password": {password},
	})
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected login 303, got %d", resp.StatusCode)
	}
	if location := resp.Header.Get("Location"); location != landing {
		t.Fatalf("unexpected login redirect for %s: %s", username, location)
	}
	_ = resp.Body.Close()
}

func expectRedirect(t *testing.T, resp *http.Response, prefix string) string {
	t.Helper()
	defer resp.Body.Close()
	loc := resp.Header.Get("Location")
	if resp.StatusCode != http.StatusSeeOther || !strings.HasPrefix(loc, prefix) {
		t.Fatalf("expected 303 to %s, got %d %q", prefix, resp.StatusCode, loc)
	}
	return loc
}

func TestLoginRedirectsByRole(t *testing.T) {
	env, admin := setupIntegrationServer(t)
	loginAs(t, admin, env.server.URL, adminEmail, testPassword, "/console/readings")

	viewer := newHTTPClient(t)
	loginAs(t, viewer, env.server.URL, viewerEmail, testPassword, "/console/units")

	resp := get(t, viewer, env.server.URL, "/")
	expectRedirect(t, resp, "/console/units")
}

func TestUnauthenticatedConsoleRedirectsToLogin(t *testing.T) {
	env, client := setupIntegrationServer(t)

	resp := get(t, client, env.server.URL, "/console/units")
	expectRedirect(t, resp, "/login")
}

func TestViewerCannotOpenReadingsWizard(t *testing.T) {
	env, client := setupIntegrationServer(t)
	loginAs(t, client, env.server.URL, viewerEmail, testPassword, "/console/units")

	resp := get(t, client, env.server.URL, "/console/readings")
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for viewer on readings, got %d", resp.StatusCode)
	}
	if env.wizards.Store().Len() != 0 {
		t.Fatalf("no wizard may be opened for a viewer")
	}

	resp = get(t, client, env.server.URL, "/console/units")
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "/console/units/1/bills") {
		t.Fatalf("expected units page for viewer, got %d", resp.StatusCode)
	}
	if strings.Contains(body, `href="/console/readings"`) {
		t.Fatalf("viewer nav must not link to the readings wizard")
	}
}

func TestCSRFPostWithoutTokenRejected(t *testing.T) {
	env, client := setupIntegrationServer(t)

	// No GET first: no CSRF token available in cookie or form.
	resp, err := client.PostForm(env.server.URL+"/login", url.Values{
		"username": {adminEmail},
		"password": {testPassword},
	})
	if err != nil {
		t.Fatalf("post login: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for missing csrf, got %d", resp.StatusCode)
	}
}

func TestReadingsWizardEndToEnd(t *testing.T) {
	env, client := setupIntegrationServer(t)
	loginAs(t, client, env.server.URL, adminEmail, testPassword, "/console/readings")

	resp := get(t, client, env.server.URL, "/console/readings")
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "1 - Lote 1") {
		t.Fatalf("expected wizard entry page, got %d", resp.StatusCode)
	}

	resp = postForm(t, client, env.server.URL, "/console/readings/production", url.Values{
		"data_ref":    {"2025-08"},
		"producao_m3": {"120,5"},
		"outros_rs":   {"10"},
		"compra_rs":   {"0"},
	})
	expectRedirect(t, resp, "/console/readings?status=")

	resp = postMultipartFile(t, client, env.server.URL, "/console/readings/import", "file", "leituras.csv", []byte("1;112;03/08/2025\n2;209,5;03/08/2025\n"))
	expectRedirect(t, resp, "/console/readings?status=")

	resp = postForm(t, client, env.server.URL, "/console/readings/submit", nil)
	expectRedirect(t, resp, "/console/readings?status=")

	payloads := env.billing.submitted()
	if len(payloads) != 1 || len(payloads[0].UnitReadings) != 2 {
		t.Fatalf("expected one payload with two units, got %+v", payloads)
	}
	if d := payloads[0].ProductionData.DataRef; d == nil || *d != "2025-08-01" {
		t.Fatalf("unexpected reference date %v", d)
	}
	env.billing.mu.Lock()
	headers := append([]string(nil), env.billing.auth...)
	env.billing.mu.Unlock()
	for _, h := range headers {
		if h != "" && !strings.HasPrefix(h, "Bearer ") {
			t.Fatalf("unexpected authorization header %q", h)
		}
	}

	var status string
	var units int
	err := env.db.WithReadTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT status, unit_count FROM reading_submissions`).Scan(ctx, &status, &units)
	})
	if err != nil || status != models.SubmissionProcessed || units != 2 {
		t.Fatalf("expected processed submission row, got %q %d (%v)", status, units, err)
	}

	resp = postForm(t, client, env.server.URL, "/console/readings/finalize", nil)
	loc := expectRedirect(t, resp, "/console/summary?")
	if !strings.Contains(loc, "month=2025-08") {
		t.Fatalf("expected processed month in redirect, got %q", loc)
	}
	if env.wizards.Store().Len() != 0 {
		t.Fatalf("expected wizard closed after finalize")
	}

	resp = get(t, client, env.server.URL, "/console/history?month=2025-08")
	body = readBody(t, resp)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "/console/summary?month=2025-08") {
		t.Fatalf("expected submission in history, got %d", resp.StatusCode)
	}
}

func TestExpiredBackendTokenEndsSession(t *testing.T) {
	env, client := setupIntegrationServer(t)
	env.billing.mu.Lock()
	env.billing.tokenTTL = -time.Minute
	env.billing.mu.Unlock()

	loginAs(t, client, env.server.URL, viewerEmail, testPassword, "/console/units")

	resp := get(t, client, env.server.URL, "/console/units")
	expectRedirect(t, resp, "/login?error=")

	var count int
	err := env.db.WithReadTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT COUNT(1) FROM sessions`).Scan(ctx, &count)
	})
	if err != nil || count != 0 {
		t.Fatalf("expected session rows removed, got %d (%v)", count, err)
	}
}

func TestSummaryExportAndReportDownloads(t *testing.T) {
	env, client := setupIntegrationServer(t)
	loginAs(t, client, env.server.URL, viewerEmail, testPassword, "/console/units")

	resp := get(t, client, env.server.URL, "/console/summary/2025-08.xlsx")
	_ = readBody(t, resp)
	if resp.StatusCode != http.StatusOK || !strings.Contains(resp.Header.Get("Content-Disposition"), "resumo_2025-08.xlsx") {
		t.Fatalf("expected xlsx attachment, got %d %q", resp.StatusCode, resp.Header.Get("Content-Disposition"))
	}

	resp = get(t, client, env.server.URL, "/console/reports/unit/1/2025-08.pdf")
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(body, "%PDF") {
		t.Fatalf("expected report pdf, got %d", resp.StatusCode)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	env, client := setupIntegrationServer(t)

	resp := get(t, client, env.server.URL, "/health")
	if body := readBody(t, resp); resp.StatusCode != http.StatusOK || body != "ok" {
		t.Fatalf("expected healthy, got %d %q", resp.StatusCode, body)
	}

	resp = get(t, client, env.server.URL, "/metrics")
	_ = readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected metrics 200, got %d", resp.StatusCode)
	}
}

func TestAdminUsersPageListsRoleScreens(t *testing.T) {
	env, client := setupIntegrationServer(t)
	loginAs(t, client, env.server.URL, adminEmail, testPassword, "/console/readings")

	resp := get(t, client, env.server.URL, "/console/admin/users")
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected users page 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, adminEmail) || !strings.Contains(body, "READINGS_SUBMIT") {
		t.Fatalf("expected users and role screens, body: %s", body)
	}

	resp = postForm(t, client, env.server.URL, "/logout", nil)
	expectRedirect(t, resp, "/login?status=")
	resp = get(t, client, env.server.URL, "/console/admin/users")
	expectRedirect(t, resp, "/login")
}

func TestCSRFCrossOriginRejected(t *testing.T) {
	env, client := setupIntegrationServer(t)
	loginAs(t, client, env.server.URL, adminEmail, testPassword, "/console/readings")

	data := url.Values{"_csrf": {csrfToken(t, client, env.server.URL)}}
	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/console/readings/reopen", strings.NewReader(data.Encode()))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Origin", "https://evil.example")

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("post cross-origin request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for cross-origin post, got %d", resp.StatusCode)
	}
}
