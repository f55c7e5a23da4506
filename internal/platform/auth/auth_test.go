package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func newTestGate(ttl time.Duration) *Gate {
	return NewGate("doc-code", "pat-code", []byte("0123456789abcdef0123456789abcdef"), ttl)
}

func TestResolveRole(t *testing.T) {
	g := newTestGate(time.Hour)

	cases := []struct {
		code string
		want string
	}{
		{"doc-code", RoleDoctor},
		{"pat-code", RolePatient},
		{"wrong", ""},
		{"", ""},
		{"DOC-CODE", ""}, // codes are case-sensitive
	}
	for _, tc := range cases {
		if got := g.ResolveRole(tc.code); got != tc.want {
			t.Errorf("ResolveRole(%q) = %q, want %q", tc.code, got, tc.want)
		}
	}
}

func TestIssueAndParseToken(t *testing.T) {
	g := newTestGate(time.Hour)

	for _, role := range []string{RoleDoctor, RolePatient} {
		token, err := g.IssueToken(role)
		if err != nil {
			t.Fatalf("IssueToken(%s): %v", role, err)
		}
		got, err := g.ParseToken(token)
		if err != nil {
			t.Fatalf("ParseToken: %v", err)
		}
		if got != role {
			t.Errorf("parsed role %q, want %q", got, role)
		}
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	g := newTestGate(-time.Minute)
	token, err := g.IssueToken(RoleDoctor)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.ParseToken(token); err == nil {
		t.Error("expired token accepted")
	}
}

func TestParseTokenRejectsForeignKey(t *testing.T) {
	g := newTestGate(time.Hour)
	other := NewGate("doc-code", "pat-code", []byte("another-signing-key-entirely!!!!"), time.Hour)

	token, err := other.IssueToken(RoleDoctor)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.ParseToken(token); err == nil {
		t.Error("token signed with a different key accepted")
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	g := newTestGate(time.Hour)
	for _, tok := range []string{"", "not.a.jwt", "abc"} {
		if _, err := g.ParseToken(tok); err == nil {
			t.Errorf("garbage token %q accepted", tok)
		}
	}
}

func TestSessionHandler(t *testing.T) {
	g := newTestGate(time.Hour)
	e := echo.New()

	do := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/session", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if err := g.SessionHandler(c); err != nil {
			e.HTTPErrorHandler(err, c)
		}
		return rec
	}

	t.Run("valid doctor code", func(t *testing.T) {
		rec := do(`{"code":"doc-code"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d", rec.Code)
		}
		var out map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatal(err)
		}
		if out["role"] != RoleDoctor || out["token"] == "" {
			t.Errorf("unexpected response %v", out)
		}
		if role, err := g.ParseToken(out["token"]); err != nil || role != RoleDoctor {
			t.Errorf("issued token does not parse: role=%q err=%v", role, err)
		}
	})

	t.Run("unknown code", func(t *testing.T) {
		if rec := do(`{"code":"nope"}`); rec.Code != http.StatusUnauthorized {
			t.Errorf("status %d, want 401", rec.Code)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		if rec := do(`{invalid`); rec.Code != http.StatusBadRequest {
			t.Errorf("status %d, want 400", rec.Code)
		}
	})
}

func TestMiddlewareAndRequireRole(t *testing.T) {
	g := newTestGate(time.Hour)
	e := echo.New()

	ok := func(c echo.Context) error {
		return c.String(http.StatusOK, RoleFromContext(c))
	}
	guarded := g.Middleware()(RequireRole(RoleDoctor)(ok))

	do := func(authorization string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/visits", nil)
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if err := guarded(c); err != nil {
			e.HTTPErrorHandler(err, c)
		}
		return rec
	}

	doctorToken, err := g.IssueToken(RoleDoctor)
	if err != nil {
		t.Fatal(err)
	}
	patientToken, err := g.IssueToken(RolePatient)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("doctor passes", func(t *testing.T) {
		rec := do("Bearer " + doctorToken)
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d", rec.Code)
		}
		if rec.Body.String() != RoleDoctor {
			t.Errorf("context role = %q", rec.Body.String())
		}
	})

	t.Run("patient forbidden", func(t *testing.T) {
		if rec := do("Bearer " + patientToken); rec.Code != http.StatusForbidden {
			t.Errorf("status %d, want 403", rec.Code)
		}
	})

	t.Run("missing token", func(t *testing.T) {
		if rec := do(""); rec.Code != http.StatusUnauthorized {
			t.Errorf("status %d, want 401", rec.Code)
		}
	})

	t.Run("mangled token", func(t *testing.T) {
		if rec := do("Bearer nope"); rec.Code != http.StatusUnauthorized {
			t.Errorf("status %d, want 401", rec.Code)
		}
	})
}
