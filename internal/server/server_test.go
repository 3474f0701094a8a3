package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/duynhne/groc-service/config"
	database "github.com/duynhne/groc-service/internal/core"
	"github.com/duynhne/groc-service/internal/core/domain"
)

var siteCSS = []byte("body { background: #f6fff4; }\n")

func testConfig(driver string) *config.Config {
	return &config.Config{
		Service: config.ServiceConfig{Name: "groc-test", Env: "test"},
		Mongo:   config.MongoConfig{Driver: driver},
		Session: config.SessionConfig{
			Secret:       "test-secret",
			CookieName:   "groc.sid",
			CookieMaxAge: 24 * time.Hour,
			TTL:          14 * 24 * time.Hour,
		},
		Admin: config.AdminConfig{Emails: []string{"boss@groc.test"}},
	}
}

// countingSessions counts store lookups.
type countingSessions struct {
	domain.SessionRepository
	gets atomic.Int64
}

func (s *countingSessions) Get(ctx context.Context, id string) (*domain.SessionRecord, error) {
	s.gets.Add(1)
	return s.SessionRepository.Get(ctx, id)
}

func newTestServer(t *testing.T, deps Deps) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	deps.Public = fstest.MapFS{"css/site.css": {Data: siteCSS}}
	deps.HashCost = bcrypt.MinCost
	srv, err := New(deps)
	if err != nil {
		t.Fatalf("build server: %v", err)
	}
	return srv
}

func newMemoryServer(t *testing.T) (*Server, Deps) {
	t.Helper()
	deps := NewDeps(testConfig(config.StoreMemory), nil)
	return newTestServer(t, deps), deps
}

// client keeps the session cookie between requests like a browser would.
type client struct {
	t      *testing.T
	srv    http.Handler
	cookie *http.Cookie
	header http.Header
}

func newClient(t *testing.T, srv http.Handler) *client {
	return &client{t: t, srv: srv, header: http.Header{}}
}

func (c *client) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	c.t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range c.header {
		req.Header[k] = v
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}

	resp := httptest.NewRecorder()
	c.srv.ServeHTTP(resp, req)

	for _, ck := range resp.Result().Cookies() {
		if ck.Name != "groc.sid" {
			continue
		}
		if ck.MaxAge < 0 {
			c.cookie = nil
		} else {
			c.cookie = ck
		}
	}
	return resp
}

func (c *client) register(username, email string) {
	c.t.Helper()
	resp := c.do(http.MethodPost, "/auth/register", url.Values{
		"username": {username},
		"email":    {email},
		"password": {"secret123"},
	})
	if resp.Code != http.StatusSeeOther {
		c.t.Fatalf("register %s: expected 303, got %d: %s", username, resp.Code, resp.Body.String())
	}
	if c.cookie == nil {
		c.t.Fatalf("register %s: no session cookie", username)
	}
}

func (c *client) createProduct(name, price, stock string) string {
	c.t.Helper()
	resp := c.do(http.MethodPost, "/products", url.Values{
		"name":  {name},
		"price": {price},
		"stock": {stock},
	})
	if resp.Code != http.StatusSeeOther {
		c.t.Fatalf("create product: expected 303, got %d: %s", resp.Code, resp.Body.String())
	}
	loc := resp.Header().Get("Location")
	if !strings.HasPrefix(loc, "/products/") {
		c.t.Fatalf("unexpected location %q", loc)
	}
	return strings.TrimPrefix(loc, "/products/")
}

// tamper changes the middle character of a signed cookie value.
func tamper(v string) string {
	b := []byte(v)
	i := len(b) / 2
	if b[i] == 'A' {
		b[i] = 'B'
	} else {
		b[i] = 'A'
	}
	return string(b)
}

func TestPipelineStages(t *testing.T) {
	srv, _ := newMemoryServer(t)
	want := []string{"body", "method-override", "static"}
	if got := srv.Stages(); !reflect.DeepEqual(got, want) {
		t.Fatalf("stages = %v, want %v", got, want)
	}
}

func TestStaticAssetBypassesSessionLookup(t *testing.T) {
	deps := NewDeps(testConfig(config.StoreMemory), nil)
	counting := &countingSessions{SessionRepository: deps.Sessions}
	deps.Sessions = counting
	srv := newTestServer(t, deps)

	c := newClient(t, srv)
	c.register("ann", "ann@groc.test")
	before := counting.gets.Load()

	resp := c.do(http.MethodGet, "/css/site.css", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if resp.Body.String() != string(siteCSS) {
		t.Fatalf("static body altered: %q", resp.Body.String())
	}
	if got := counting.gets.Load(); got != before {
		t.Fatalf("static request looked up the session (%d -> %d)", before, got)
	}

	c.do(http.MethodGet, "/", nil)
	if counting.gets.Load() != before+1 {
		t.Fatal("dynamic request must look up the session")
	}
}

func TestCurrentUserInViews(t *testing.T) {
	srv, _ := newMemoryServer(t)
	c := newClient(t, srv)

	body := c.do(http.MethodGet, "/", nil).Body.String()
	if !strings.Contains(body, `class="anonymous"`) || strings.Contains(body, "data-user") {
		t.Fatal("anonymous request must render without a current user")
	}

	c.register("ann", "ann@groc.test")
	body = c.do(http.MethodGet, "/", nil).Body.String()
	if !strings.Contains(body, `data-user="ann"`) {
		t.Fatalf("expected current user ann in view, got:\n%s", body)
	}
	if !strings.Contains(body, "Welcome to Groc, ann!") {
		t.Fatal("expected registration flash on the first page")
	}
	body = c.do(http.MethodGet, "/", nil).Body.String()
	if strings.Contains(body, "Welcome to Groc") {
		t.Fatal("flash must be shown once")
	}

	forged := *c.cookie
	forged.Value = tamper(forged.Value)
	other := newClient(t, srv)
	other.cookie = &forged
	body = other.do(http.MethodGet, "/", nil).Body.String()
	if strings.Contains(body, "data-user") {
		t.Fatal("tampered cookie must be treated as no session")
	}
}

func TestMethodOverrideDispatchesDelete(t *testing.T) {
	srv, _ := newMemoryServer(t)
	admin := newClient(t, srv)
	admin.register("boss", "boss@groc.test")
	id := admin.createProduct("Milk", "2.50", "10")

	resp := admin.do(http.MethodPost, "/products/"+id, url.Values{"_method": {"DELETE"}})
	if resp.Code != http.StatusSeeOther || resp.Header().Get("Location") != "/products" {
		t.Fatalf("expected delete redirect, got %d %q", resp.Code, resp.Header().Get("Location"))
	}
	if resp := admin.do(http.MethodGet, "/products/"+id, nil); resp.Code != http.StatusNotFound {
		t.Fatalf("product must be gone, got %d", resp.Code)
	}
}

func TestRouteGroupsAreIsolated(t *testing.T) {
	srv, _ := newMemoryServer(t)
	c := newClient(t, srv)

	resp := c.do(http.MethodGet, "/products/42", nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected product 404, got %d", resp.Code)
	}
	if resp.Header().Get("Location") != "" {
		t.Fatal("/products/42 must not reach a login-guarded group")
	}
	if !strings.Contains(resp.Body.String(), "Product not found") {
		t.Fatal("expected the products handler to answer")
	}

	if resp := c.do(http.MethodGet, "/nowhere", nil); resp.Code != http.StatusNotFound || !strings.Contains(resp.Body.String(), "Page not found") {
		t.Fatalf("expected 404 page for unmatched path, got %d", resp.Code)
	}
}

func TestCartRequiresLogin(t *testing.T) {
	srv, _ := newMemoryServer(t)
	c := newClient(t, srv)

	resp := c.do(http.MethodPost, "/cart", url.Values{"product_id": {"x"}})
	if resp.Code != http.StatusSeeOther || !strings.HasPrefix(resp.Header().Get("Location"), "/auth/login") {
		t.Fatalf("expected redirect to login, got %d %q", resp.Code, resp.Header().Get("Location"))
	}

	resp = c.do(http.MethodGet, "/cart", nil)
	if loc := resp.Header().Get("Location"); loc != "/auth/login?next=%2Fcart" {
		t.Fatalf("unexpected redirect %q", loc)
	}
	if c.cookie != nil {
		t.Fatal("anonymous cart access must not create a session")
	}
}

func TestAdminRequiresAdminRole(t *testing.T) {
	srv, _ := newMemoryServer(t)

	anon := newClient(t, srv)
	if resp := anon.do(http.MethodGet, "/admin", nil); resp.Code != http.StatusSeeOther {
		t.Fatalf("anonymous: expected redirect, got %d", resp.Code)
	}

	customer := newClient(t, srv)
	customer.register("ann", "ann@groc.test")
	if resp := customer.do(http.MethodGet, "/admin", nil); resp.Code != http.StatusForbidden {
		t.Fatalf("customer: expected 403, got %d", resp.Code)
	}
	if resp := customer.do(http.MethodPost, "/products", url.Values{"name": {"x"}, "price": {"1"}}); resp.Code != http.StatusForbidden {
		t.Fatalf("customer create product: expected 403, got %d", resp.Code)
	}

	admin := newClient(t, srv)
	admin.register("boss", "boss@groc.test")
	resp := admin.do(http.MethodGet, "/admin", nil)
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), "Users: 2") {
		t.Fatalf("admin dashboard: got %d\n%s", resp.Code, resp.Body.String())
	}
}

func TestMalformedJSONBody(t *testing.T) {
	srv, _ := newMemoryServer(t)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	srv.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestJSONLogin(t *testing.T) {
	srv, _ := newMemoryServer(t)
	newClient(t, srv).register("ann", "ann@groc.test")

	login := func(password string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/login",
			strings.NewReader(`{"username":"ann","password":"`+password+`"}`))
		req.Header.Set("Content-Type", "application/json")
		resp := httptest.NewRecorder()
		srv.ServeHTTP(resp, req)
		return resp
	}

	if resp := login("wrong-password"); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}

	resp := login("secret123")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var body struct {
		User domain.User `json:"user"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.User.Username != "ann" || body.User.Role != domain.RoleCustomer {
		t.Fatalf("unexpected user %+v", body.User)
	}
}

func TestLoginLogout(t *testing.T) {
	srv, _ := newMemoryServer(t)
	newClient(t, srv).register("ann", "ann@groc.test")

	c := newClient(t, srv)
	resp := c.do(http.MethodPost, "/auth/login", url.Values{"username": {"ann"}, "password": {"nope-nope"}})
	if resp.Code != http.StatusUnauthorized || c.cookie != nil {
		t.Fatalf("bad password: expected 401 without session, got %d", resp.Code)
	}
	if resp := c.do(http.MethodPost, "/auth/login", url.Values{"username": {"ghost"}, "password": {"secret123"}}); resp.Code != http.StatusUnauthorized {
		t.Fatalf("unknown user: expected 401, got %d", resp.Code)
	}

	resp = c.do(http.MethodPost, "/auth/login", url.Values{
		"username": {"ann"},
		"password": {"secret123"},
		"next":     {"/cart"},
	})
	if resp.Code != http.StatusSeeOther || resp.Header().Get("Location") != "/cart" {
		t.Fatalf("login: got %d %q", resp.Code, resp.Header().Get("Location"))
	}
	stolen := *c.cookie

	resp = c.do(http.MethodPost, "/auth/logout", url.Values{})
	if resp.Code != http.StatusSeeOther || c.cookie != nil {
		t.Fatalf("logout must redirect and clear the cookie, got %d", resp.Code)
	}

	replay := newClient(t, srv)
	replay.cookie = &stolen
	if body := replay.do(http.MethodGet, "/", nil).Body.String(); strings.Contains(body, "data-user") {
		t.Fatal("destroyed session must not authenticate")
	}
}

func TestDuplicateRegistration(t *testing.T) {
	srv, _ := newMemoryServer(t)
	newClient(t, srv).register("ann", "ann@groc.test")

	c := newClient(t, srv)
	resp := c.do(http.MethodPost, "/auth/register", url.Values{
		"username": {"ann"},
		"email":    {"other@groc.test"},
		"password": {"secret123"},
	})
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
	if c.cookie != nil {
		t.Fatal("failed registration must not create a session")
	}
}

func TestCartFlow(t *testing.T) {
	srv, _ := newMemoryServer(t)
	admin := newClient(t, srv)
	admin.register("boss", "boss@groc.test")
	milk := admin.createProduct("Milk", "2.50", "3")
	eggs := admin.createProduct("Eggs", "4", "12")

	c := newClient(t, srv)
	c.register("ann", "ann@groc.test")

	resp := c.do(http.MethodPost, "/cart", url.Values{"product_id": {milk}, "quantity": {"2"}})
	if resp.Code != http.StatusSeeOther || resp.Header().Get("Location") != "/cart" {
		t.Fatalf("add: got %d %q", resp.Code, resp.Header().Get("Location"))
	}
	c.do(http.MethodPost, "/cart", url.Values{"product_id": {eggs}})

	body := c.do(http.MethodGet, "/cart", nil).Body.String()
	if !strings.Contains(body, "Total (3 items): $9.00") {
		t.Fatalf("unexpected cart page:\n%s", body)
	}

	if resp := c.do(http.MethodPost, "/cart", url.Values{"product_id": {milk}, "quantity": {"2"}}); resp.Code != http.StatusConflict {
		t.Fatalf("over stock: expected 409, got %d", resp.Code)
	}
	if resp := c.do(http.MethodPost, "/cart", url.Values{"product_id": {"missing"}}); resp.Code != http.StatusNotFound {
		t.Fatalf("unknown product: expected 404, got %d", resp.Code)
	}

	c.do(http.MethodPost, "/cart/"+milk, url.Values{"_method": {"PUT"}, "quantity": {"0"}})
	body = c.do(http.MethodGet, "/cart", nil).Body.String()
	if strings.Contains(body, "/products/"+milk) || !strings.Contains(body, "Total (1 items): $4.00") {
		t.Fatalf("quantity 0 must remove the line:\n%s", body)
	}

	c.do(http.MethodPost, "/cart?_method=DELETE", url.Values{})
	if body := c.do(http.MethodGet, "/cart", nil).Body.String(); !strings.Contains(body, "Your cart is empty") {
		t.Fatal("cart must be empty after clearing")
	}
}

func TestAdminChangesRole(t *testing.T) {
	srv, deps := newMemoryServer(t)
	admin := newClient(t, srv)
	admin.register("boss", "boss@groc.test")
	newClient(t, srv).register("ann", "ann@groc.test")

	ann, err := deps.Users.GetByUsername(context.Background(), "ann")
	if err != nil || ann == nil {
		t.Fatalf("lookup ann: %v", err)
	}

	resp := admin.do(http.MethodPost, "/admin/users/"+ann.ID+"/role", url.Values{"_method": {"PUT"}, "role": {"admin"}})
	if resp.Code != http.StatusSeeOther {
		t.Fatalf("set role: got %d: %s", resp.Code, resp.Body.String())
	}
	ann, _ = deps.Users.GetByUsername(context.Background(), "ann")
	if ann.Role != domain.RoleAdmin {
		t.Fatalf("role = %q, want admin", ann.Role)
	}

	if resp := admin.do(http.MethodPost, "/admin/users/"+ann.ID+"/role", url.Values{"_method": {"PUT"}, "role": {"root"}}); resp.Code != http.StatusBadRequest {
		t.Fatalf("invalid role: expected 400, got %d", resp.Code)
	}
}

func (c *client) setRole(id, role string) {
	c.t.Helper()
	resp := c.do(http.MethodPost, "/admin/users/"+id+"/role", url.Values{"_method": {"PUT"}, "role": {role}})
	if resp.Code != http.StatusSeeOther {
		c.t.Fatalf("set role %s: got %d: %s", role, resp.Code, resp.Body.String())
	}
}

func TestDemotedAdminLosesAccessImmediately(t *testing.T) {
	srv, deps := newMemoryServer(t)
	boss := newClient(t, srv)
	boss.register("boss", "boss@groc.test")
	ann := newClient(t, srv)
	ann.register("ann", "ann@groc.test")

	row, err := deps.Users.GetByUsername(context.Background(), "ann")
	if err != nil || row == nil {
		t.Fatalf("lookup ann: %v", err)
	}
	boss.setRole(row.ID, domain.RoleAdmin)

	ann.do(http.MethodPost, "/auth/logout", url.Values{})
	resp := ann.do(http.MethodPost, "/auth/login", url.Values{"username": {"ann"}, "password": {"secret123"}})
	if resp.Code != http.StatusSeeOther {
		t.Fatalf("login: got %d", resp.Code)
	}
	if resp := ann.do(http.MethodGet, "/admin", nil); resp.Code != http.StatusOK {
		t.Fatalf("promoted admin: expected 200, got %d", resp.Code)
	}

	boss.setRole(row.ID, domain.RoleCustomer)

	if resp := ann.do(http.MethodGet, "/admin", nil); resp.Code != http.StatusForbidden {
		t.Fatalf("demoted admin: GET /admin expected 403, got %d", resp.Code)
	}
	resp = ann.do(http.MethodPost, "/products", url.Values{"name": {"Milk"}, "price": {"2.50"}, "stock": {"10"}})
	if resp.Code != http.StatusForbidden {
		t.Fatalf("demoted admin: POST /products expected 403, got %d", resp.Code)
	}
	if n, _ := deps.Products.Count(context.Background()); n != 0 {
		t.Fatalf("demoted admin must not create products, have %d", n)
	}
	if resp := ann.do(http.MethodGet, "/cart", nil); resp.Code != http.StatusOK {
		t.Fatalf("demoted admin keeps customer access, got %d", resp.Code)
	}
}

func TestPromotionAppliesWithoutRelogin(t *testing.T) {
	srv, deps := newMemoryServer(t)
	boss := newClient(t, srv)
	boss.register("boss", "boss@groc.test")
	ann := newClient(t, srv)
	ann.register("ann", "ann@groc.test")

	if resp := ann.do(http.MethodGet, "/admin", nil); resp.Code != http.StatusForbidden {
		t.Fatalf("customer: expected 403, got %d", resp.Code)
	}

	row, _ := deps.Users.GetByUsername(context.Background(), "ann")
	boss.setRole(row.ID, domain.RoleAdmin)

	if resp := ann.do(http.MethodGet, "/admin", nil); resp.Code != http.StatusOK {
		t.Fatalf("promoted customer: expected 200 on the same session, got %d", resp.Code)
	}
	ann.createProduct("Bread", "3.10", "4")
}

func TestLoginIgnoresOffSiteNext(t *testing.T) {
	srv, _ := newMemoryServer(t)
	newClient(t, srv).register("ann", "ann@groc.test")

	for _, next := range []string{"/\t/evil.example", "//evil.example", "/\\evil.example", "https://evil.example"} {
		c := newClient(t, srv)
		resp := c.do(http.MethodPost, "/auth/login", url.Values{
			"username": {"ann"},
			"password": {"secret123"},
			"next":     {next},
		})
		if resp.Code != http.StatusSeeOther || resp.Header().Get("Location") != "/" {
			t.Errorf("next %q: got %d %q, want redirect to /", next, resp.Code, resp.Header().Get("Location"))
		}
	}
}

func TestFlashSurvivesHealthAndNotFound(t *testing.T) {
	srv, _ := newMemoryServer(t)
	c := newClient(t, srv)
	c.register("ann", "ann@groc.test")

	c.do(http.MethodGet, "/health", nil)
	c.do(http.MethodGet, "/metrics", nil)
	c.header.Set("Accept", "application/json")
	c.do(http.MethodGet, "/no-such-page", nil)
	c.header.Del("Accept")

	if body := c.do(http.MethodGet, "/", nil).Body.String(); !strings.Contains(body, "Welcome to Groc, ann!") {
		t.Fatal("welcome flash must still be pending for the first rendered page")
	}
	if body := c.do(http.MethodGet, "/", nil).Body.String(); strings.Contains(body, "Welcome to Groc, ann!") {
		t.Fatal("flash must be consumed by the page that shows it")
	}
}

func TestJSONErrorsForJSONClients(t *testing.T) {
	srv, _ := newMemoryServer(t)
	c := newClient(t, srv)
	c.header.Set("Accept", "application/json")

	resp := c.do(http.MethodGet, "/products/42", nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil || body["error"] == "" {
		t.Fatalf("expected JSON error body, got %q", resp.Body.String())
	}

	if resp := c.do(http.MethodGet, "/cart", nil); resp.Code != http.StatusUnauthorized {
		t.Fatalf("JSON client without login: expected 401, got %d", resp.Code)
	}
}

func TestServesWithoutDatabase(t *testing.T) {
	connector := database.NewConnector("mongodb://127.0.0.1:1/groc", "groc", 300*time.Millisecond)
	connector.Start(context.Background())
	select {
	case <-connector.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("connection attempt did not finish")
	}
	if state, _ := connector.State(); state != database.Failed {
		t.Fatalf("state = %s, want failed", state)
	}

	srv := newTestServer(t, NewDeps(testConfig(config.StoreMongo), connector))
	c := newClient(t, srv)

	if resp := c.do(http.MethodGet, "/health", nil); resp.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", resp.Code)
	}
	if resp := c.do(http.MethodGet, "/css/site.css", nil); resp.Code != http.StatusOK {
		t.Fatalf("static: expected 200, got %d", resp.Code)
	}

	for _, path := range []string{"/", "/products"} {
		start := time.Now()
		resp := c.do(http.MethodGet, path, nil)
		if resp.Code != http.StatusServiceUnavailable {
			t.Fatalf("%s: expected 503, got %d", path, resp.Code)
		}
		if elapsed := time.Since(start); elapsed > 2*time.Second {
			t.Fatalf("%s: took %v, must fail fast", path, elapsed)
		}
	}

	resp := c.do(http.MethodPost, "/auth/login", url.Values{"username": {"ann"}, "password": {"secret123"}})
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("login: expected 503, got %d", resp.Code)
	}

	resp = c.do(http.MethodGet, "/ready", nil)
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"database":"failed`) {
		t.Fatalf("ready: got %d %s", resp.Code, resp.Body.String())
	}
}

func TestReadyFailsWhileDraining(t *testing.T) {
	srv, _ := newMemoryServer(t)
	c := newClient(t, srv)
	if resp := c.do(http.MethodGet, "/ready", nil); resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	srv.Drain()
	resp := c.do(http.MethodGet, "/ready", nil)
	if resp.Code != http.StatusServiceUnavailable || !strings.Contains(resp.Body.String(), "shutting_down") {
		t.Fatalf("expected 503 shutting_down, got %d %s", resp.Code, resp.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newMemoryServer(t)
	c := newClient(t, srv)
	c.do(http.MethodGet, "/", nil)
	resp := c.do(http.MethodGet, "/metrics", nil)
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), "groc_http_requests_total") {
		t.Fatalf("expected prometheus metrics, got %d", resp.Code)
	}
}
