package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"schooladmin/models"

	"github.com/gofiber/fiber/v2"
)

func newTestIssuer() *TokenIssuer {
	return NewTokenIssuer("test-secret-key-123", time.Hour, 30*24*time.Hour)
}

func TestIssueAndVerify(t *testing.T) {
	ti := newTestIssuer()
	id := Identity{UserID: 7, Role: models.RoleTeacher}

	access, err := ti.IssueAccess(id)
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}
	refresh, err := ti.IssueRefresh(id)
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}

	claims, err := ti.Verify(access, TokenTypeAccess)
	if err != nil {
		t.Fatalf("verify access: %v", err)
	}
	if claims.UserID != 7 || claims.Role != models.RoleTeacher {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, err := ti.Verify(refresh, TokenTypeAccess); err != ErrWrongTokenType {
		t.Fatalf("refresh token must not pass as access, got %v", err)
	}
	if _, err := ti.Verify(refresh, TokenTypeRefresh); err != nil {
		t.Fatalf("verify refresh: %v", err)
	}

	other := NewTokenIssuer("another-secret-456", time.Hour, time.Hour)
	if _, err := other.Verify(access, TokenTypeAccess); err != ErrInvalidToken {
		t.Fatalf("expected invalid token for foreign signature, got %v", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	ti := newTestIssuer()
	ti.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := ti.IssueAccess(Identity{UserID: 1, Role: models.RoleAdmin})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	ti.now = time.Now
	if _, err := ti.Verify(token, TokenTypeAccess); err != ErrInvalidToken {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
}

func TestAuthorizePolicies(t *testing.T) {
	ti := newTestIssuer()
	app := fiber.New()
	app.Get("/admin", JWTMiddleware(ti), Authorize(AdminOnly), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/staff", JWTMiddleware(ti), Authorize(Staff), func(c *fiber.Ctx) error {
		id, _ := CurrentIdentity(c)
		return c.JSON(fiber.Map{"user_id": id.UserID})
	})

	adminToken, _ := ti.IssueAccess(Identity{UserID: 1, Role: models.RoleAdmin})
	teacherToken, _ := ti.IssueAccess(Identity{UserID: 2, Role: models.RoleTeacher})
	refreshToken, _ := ti.IssueRefresh(Identity{UserID: 1, Role: models.RoleAdmin})

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"admin on admin route", "/admin", "Bearer " + adminToken, 200},
		{"teacher on admin route", "/admin", "Bearer " + teacherToken, 403},
		{"teacher on staff route", "/staff", "Bearer " + teacherToken, 200},
		{"missing header", "/staff", "", 401},
		{"malformed header", "/staff", adminToken, 401},
		{"garbage token", "/staff", "Bearer not-a-token", 401},
		{"refresh used as access", "/staff", "Bearer " + refreshToken, 401},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, resp.StatusCode)
			}
		})
	}
}
