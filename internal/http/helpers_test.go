package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jmoiron/sqlx"

	"keepsake/internal/config"
	"keepsake/internal/http/handlers"
	applog "keepsake/internal/log"
	"keepsake/internal/rates"
	"keepsake/internal/repos"
	"keepsake/internal/services"
)

const (
	adminEmail = "admin@keepsake.test"
	adminPass  = "Adm1n!pass"
)

type testEnv struct {
	app      *fiber.App
	db       *sqlx.DB
	hits     atomic.Int32
	failRate atomic.Bool
}

type envOpts struct {
	csrf   bool
	limits handlers.Limits
}

// newTestEnv wires the real handlers over an in-memory database and a
// local rate upstream.
func newTestEnv(t *testing.T, opts envOpts) *testEnv {
	t.Helper()
	env := &testEnv{}

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.hits.Add(1)
		if env.failRate.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"result":"success","base_code":"USD","rates":{"USD":1,"EUR":0.92,"GBP":0.79,"JPY":149.5,"CHF":0.88}}`)
	}))
	t.Cleanup(upstream.Close)

	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := repos.SeedAdmin(db, adminEmail, adminPass); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	env.db = db

	if opts.limits == (handlers.Limits{}) {
		opts.limits = handlers.Limits{Login: 100, LoginEvery: time.Minute, Rates: 100, RatesEvery: time.Minute}
	}

	cfg := config.Config{DBDSN: ":memory:", RatesTTL: time.Hour}
	rateSvc := rates.NewService(rates.NewHTTPSource(upstream.URL), rates.NewMemoryCache(time.Minute))
	authSvc := &services.AuthService{Users: repos.NewUserRepo(db)}

	app := fiber.New(fiber.Config{
		Views:        handlers.NewViews("../../web/templates"),
		ErrorHandler: handlers.ErrorHandler,
		BodyLimit:    1 << 20,
	})
	app.Use(requestid.New())
	if opts.csrf {
		app.Use(csrf.New(csrf.Config{
			KeyLookup:      "header:X-Csrf-Token",
			CookieName:     "csrf_",
			CookieSameSite: "Lax",
			ErrorHandler: func(c *fiber.Ctx, err error) error {
				applog.Security(c, "csrf.fail", nil)
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "security check failed"})
			},
		}))
	}
	handlers.Mount(app, handlers.NewDeps(db, cfg, authSvc, rateSvc), false, opts.limits)
	env.app = app
	return env
}

// client is one browser: it keeps its cookies and echoes the CSRF token.
type client struct {
	t       *testing.T
	app     *fiber.App
	cookies map[string]string
	lang    string
}

func (e *testEnv) client(t *testing.T) *client {
	return &client{t: t, app: e.app, cookies: map[string]string{}}
}

func (c *client) do(method, path string, body any) (*http.Response, []byte) {
	c.t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.lang != "" {
		req.Header.Set("Accept-Language", c.lang)
	}
	for name, val := range c.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: val})
	}
	if tok := c.cookies["csrf_"]; tok != "" {
		req.Header.Set("X-Csrf-Token", tok)
	}
	resp, err := c.app.Test(req, -1)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	for _, ck := range resp.Cookies() {
		c.cookies[ck.Name] = ck.Value
	}
	out, _ := io.ReadAll(resp.Body)
	return resp, out
}

// doJSON performs the request, checks the status and decodes the body.
func (c *client) doJSON(method, path string, body any, wantStatus int, out any) {
	c.t.Helper()
	resp, raw := c.do(method, path, body)
	if resp.StatusCode != wantStatus {
		c.t.Fatalf("%s %s: expected %d, got %d; body=%s", method, path, wantStatus, resp.StatusCode, raw)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			c.t.Fatalf("%s %s: decode: %v; body=%s", method, path, err, raw)
		}
	}
}

func (c *client) login(email, password string) *http.Response {
	c.t.Helper()
	resp, _ := c.do("POST", "/api/v1/login", map[string]string{"email": email, "password": password})
	return resp
}

type cartLine struct {
	LineID              string  `json:"lineId"`
	Quantity            int     `json:"quantity"`
	EngravingLeftHeart  string  `json:"engravingLeftHeart"`
	EngravingRightHeart string  `json:"engravingRightHeart"`
	LineTotalUSD        float64 `json:"lineTotalUsd"`
	LineTotal           string  `json:"lineTotal"`
	Product             struct {
		ID       string  `json:"id"`
		PriceUSD float64 `json:"priceUsd"`
	} `json:"product"`
}

type cartResp struct {
	Items       []cartLine `json:"items"`
	TotalItems  int        `json:"totalItems"`
	SubtotalUSD float64    `json:"subtotalUsd"`
	Subtotal    string     `json:"subtotal"`
	Currency    string     `json:"currency"`
}

type addResp struct {
	Line cartLine `json:"line"`
	Cart cartResp `json:"cart"`
}

func (c *client) add(productID string, qty int, left, right string) addResp {
	c.t.Helper()
	var out addResp
	c.doJSON("POST", "/api/v1/cart/items", map[string]any{
		"productId":           productID,
		"quantity":            qty,
		"engravingLeftHeart":  left,
		"engravingRightHeart": right,
	}, http.StatusCreated, &out)
	return out
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	SID    string         `json:"sid"`
	Fields map[string]any `json:"fields"`
}

type lockedBuf struct {
	b  *bytes.Buffer
	mu *sync.Mutex
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf bytes.Buffer
	var mu sync.Mutex
	oldW := log.Writer()
	oldFlags := log.Flags()
	log.SetOutput(&lockedBuf{b: &buf, mu: &mu})
	log.SetFlags(0)
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var e logEntry
		if err := json.Unmarshal([]byte(strings.TrimSpace(line)), &e); err == nil && e.Action != "" {
			entries = append(entries, e)
		}
	}
	return entries
}

func findLog(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}
