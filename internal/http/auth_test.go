package handlers_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"keepsake/internal/http/handlers"
)

// Seeded admin password is stored as a bcrypt hash, never in plain text.
func TestAdminSeedIsHashed(t *testing.T) {
	env := newTestEnv(t, envOpts{})
	var hashes []string
	if err := env.db.Select(&hashes, `SELECT password_hash FROM users`); err != nil {
		t.Fatalf("select hashes: %v", err)
	}
	if len(hashes) != 1 {
		t.Fatalf("expected only the admin user, got %d", len(hashes))
	}
	h := hashes[0]
	if strings.Contains(h, adminPass) {
		t.Fatalf("hash contains plaintext password")
	}
	if !strings.HasPrefix(h, "$2") {
		t.Fatalf("unexpected hash format: %s", h)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(h), []byte(adminPass)); err != nil {
		t.Fatalf("seed hash does not validate known password: %v", err)
	}
}

func TestLoginLogoutKeepsCart(t *testing.T) {
	env := newTestEnv(t, envOpts{})
	c := env.client(t)
	c.add("rose-locket", 1, "", "")
	sid := c.cookies["sid"]

	for _, tc := range []struct{ email, pass string }{
		{"not-an-email", adminPass},
		{adminEmail, "short"},
		{adminEmail, "Wr0ng!pass"},
		{"nobody@keepsake.test", adminPass},
	} {
		if resp := c.login(tc.email, tc.pass); resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("login(%q): expected 401, got %d", tc.email, resp.StatusCode)
		}
	}

	if resp := c.login(adminEmail, adminPass); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on good login, got %d", resp.StatusCode)
	}
	var me struct {
		User struct {
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
	}
	c.doJSON("GET", "/api/v1/me", nil, http.StatusOK, &me)
	if me.User.Email != adminEmail || me.User.Role != "ADMIN" {
		t.Fatalf("unexpected user %+v", me.User)
	}

	c.doJSON("POST", "/api/v1/logout", nil, http.StatusNoContent, nil)
	resp, _ := c.do("GET", "/api/v1/me", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", resp.StatusCode)
	}
	if c.cookies["sid"] != sid {
		t.Fatalf("session id changed across login/logout")
	}
	var cart cartResp
	c.doJSON("GET", "/api/v1/cart", nil, http.StatusOK, &cart)
	if cart.TotalItems != 1 {
		t.Fatalf("cart lost across login/logout: %+v", cart)
	}
}

func TestLoginThrottle(t *testing.T) {
	env := newTestEnv(t, envOpts{limits: handlers.Limits{Login: 2, LoginEvery: time.Minute, Rates: 100, RatesEvery: time.Minute}})
	c := env.client(t)

	entries := captureLogs(t, func() {
		for i := 0; i < 3; i++ {
			resp := c.login(adminEmail, "Wr0ng!pass")
			want := http.StatusUnauthorized
			if i == 2 {
				want = http.StatusTooManyRequests
			}
			if resp.StatusCode != want {
				t.Fatalf("attempt %d: expected %d, got %d", i, want, resp.StatusCode)
			}
		}
	})

	var fails int
	for _, e := range entries {
		if e.Action == "auth.login.fail" {
			fails++
			if e.Fields["password"] != nil {
				t.Fatalf("password leaked into logs")
			}
		}
	}
	if fails != 2 {
		t.Fatalf("expected 2 auth.login.fail logs, got %d", fails)
	}
	if _, ok := findLog(entries, "rate.login.hit"); !ok {
		t.Fatalf("expected rate.login.hit log")
	}
}
