package auth

import (
	"net/http/httptest"
	"testing"
)

func TestSchedulerHeaderAllowsRegardlessOfToken(t *testing.T) {
	a := &TriggerAuthorizer{Secret: "topsecret", Production: true}

	r := httptest.NewRequest("POST", "/sync", nil)
	r.Header.Set(SchedulerHeader, "1")
	// 带错误令牌也应放行：调度头优先短路
	r.Header.Set("Authorization", "Bearer wrong")
	if !a.Authorize(r) {
		t.Fatalf("request with scheduler header should be allowed")
	}

	// 头的值不对则不走该分支
	r2 := httptest.NewRequest("POST", "/sync", nil)
	r2.Header.Set(SchedulerHeader, "true")
	if a.Authorize(r2) {
		t.Fatalf("wrong scheduler header value should not be allowed")
	}
}

func TestNonProductionBypass(t *testing.T) {
	a := &TriggerAuthorizer{Secret: "topsecret", Production: false}

	r := httptest.NewRequest("POST", "/sync", nil)
	if !a.Authorize(r) {
		t.Fatalf("development mode should allow bare requests")
	}
}

func TestBearerToken(t *testing.T) {
	a := &TriggerAuthorizer{Secret: "topsecret", Production: true}

	cases := []struct {
		name   string
		header string
		want   bool
	}{
		{"correct token", "Bearer topsecret", true},
		{"wrong token", "Bearer nope", false},
		{"wrong length token", "Bearer topsecretbutlonger", false},
		{"basic scheme rejected", "Basic xyz", false},
		{"extra fields rejected", "Bearer topsecret extra", false},
		{"bare token rejected", "topsecret", false},
		{"empty header", "", false},
	}

	for _, c := range cases {
		r := httptest.NewRequest("POST", "/sync", nil)
		if c.header != "" {
			r.Header.Set("Authorization", c.header)
		}
		if got := a.Authorize(r); got != c.want {
			t.Fatalf("%s: Authorize = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestBearerRejectedWhenSecretUnset(t *testing.T) {
	a := &TriggerAuthorizer{Secret: "", Production: true}

	r := httptest.NewRequest("POST", "/sync", nil)
	r.Header.Set("Authorization", "Bearer ")
	if a.Authorize(r) {
		t.Fatalf("empty shared secret must never authorize")
	}
}

func TestAdminAuthorizerRequiresTokenAndOrigin(t *testing.T) {
	a := &AdminAuthorizer{
		Token:          "admin-token",
		TrustedOrigins: []string{"https://admin.example.com"},
	}

	// 令牌 + 可信 Origin 同时成立才放行
	r := httptest.NewRequest("POST", "/admin/sync", nil)
	r.Header.Set("X-Admin-Token", "admin-token")
	r.Header.Set("Origin", "https://admin.example.com")
	if !a.Authorize(r) {
		t.Fatalf("valid admin token + trusted origin should be allowed")
	}

	// 缺 Origin
	r2 := httptest.NewRequest("POST", "/admin/sync", nil)
	r2.Header.Set("X-Admin-Token", "admin-token")
	if a.Authorize(r2) {
		t.Fatalf("missing origin must be rejected")
	}

	// 不可信 Origin
	r3 := httptest.NewRequest("POST", "/admin/sync", nil)
	r3.Header.Set("X-Admin-Token", "admin-token")
	r3.Header.Set("Origin", "https://evil.example.com")
	if a.Authorize(r3) {
		t.Fatalf("untrusted origin must be rejected")
	}

	// 错误令牌
	r4 := httptest.NewRequest("POST", "/admin/sync", nil)
	r4.Header.Set("X-Admin-Token", "guess")
	r4.Header.Set("Origin", "https://admin.example.com")
	if a.Authorize(r4) {
		t.Fatalf("wrong admin token must be rejected")
	}

	// 未配置令牌时一律拒绝
	empty := &AdminAuthorizer{TrustedOrigins: []string{"https://admin.example.com"}}
	if empty.Authorize(r) {
		t.Fatalf("unset admin token must reject everything")
	}
}
