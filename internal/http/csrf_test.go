package handlers_test

import (
	"net/http"
	"testing"
)

func TestCSRFRequiredForMutations(t *testing.T) {
	env := newTestEnv(t, envOpts{csrf: true})
	c := env.client(t)

	entries := captureLogs(t, func() {
		resp, _ := c.do("POST", "/api/v1/cart/items", map[string]any{"productId": "rose-locket", "quantity": 1})
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("expected 403 without token, got %d", resp.StatusCode)
		}
	})
	if _, ok := findLog(entries, "csrf.fail"); !ok {
		t.Fatalf("expected csrf.fail log")
	}

	// a safe request hands out the token, which the client echoes back
	c.doJSON("GET", "/api/v1/cart", nil, http.StatusOK, nil)
	if c.cookies["csrf_"] == "" {
		t.Fatal("csrf cookie missing")
	}
	line := c.add("rose-locket", 1, "", "")
	if line.Cart.TotalItems != 1 {
		t.Fatalf("expected 1 item, got %d", line.Cart.TotalItems)
	}

	// a forged token is refused
	c.cookies["csrf_"] = "forged"
	resp, _ := c.do("DELETE", "/api/v1/cart", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for forged token, got %d", resp.StatusCode)
	}
}
