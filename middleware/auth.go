package middleware

import (
	"errors"
	"strings"
	"time"

	"schooladmin/models"
	"schooladmin/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	IdentityKey = "identity"
)

type Claims struct {
	UserID    uint        `json:"user_id"`
	Role      models.Role `json:"role"`
	TokenType string      `json:"token_type"`
	jwt.RegisteredClaims
}

// Identity is the verified caller stored on the request context.
type Identity struct {
	UserID uint
	Role   models.Role
}

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrWrongTokenType = errors.New("wrong token type")
)

// TokenIssuer mints and verifies HS256 tokens.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenIssuer(secret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL, now: time.Now}
}

func (ti *TokenIssuer) AccessTTL() time.Duration { return ti.accessTTL }

// IssueAccess creates a short-lived access token.
func (ti *TokenIssuer) IssueAccess(id Identity) (string, error) {
	return ti.issue(id, TokenTypeAccess, ti.accessTTL)
}

// IssueRefresh creates a long-lived refresh token.
func (ti *TokenIssuer) IssueRefresh(id Identity) (string, error) {
	return ti.issue(id, TokenTypeRefresh, ti.refreshTTL)
}

func (ti *TokenIssuer) issue(id Identity, tokenType string, ttl time.Duration) (string, error) {
	now := ti.now()
	claims := &Claims{
		UserID:    id.UserID,
		Role:      id.Role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ti.secret)
}

// Verify parses tokenString and checks signature, expiry and token type.
func (ti *TokenIssuer) Verify(tokenString, wantType string) (*Claims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return ti.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == 0 || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != wantType {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", utils.NewAuthenticationError("Missing authorization header")
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader || strings.TrimSpace(tokenString) == "" {
		return "", utils.NewAuthenticationError("Invalid authorization header format")
	}
	return strings.TrimSpace(tokenString), nil
}

// JWTMiddleware validates access tokens and stores the caller's Identity.
func JWTMiddleware(issuer *TokenIssuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return authenticate(c, issuer, TokenTypeAccess)
	}
}

// RefreshMiddleware is JWTMiddleware for refresh tokens.
func RefreshMiddleware(issuer *TokenIssuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return authenticate(c, issuer, TokenTypeRefresh)
	}
}

func authenticate(c *fiber.Ctx, issuer *TokenIssuer, tokenType string) error {
	tokenString, err := BearerToken(c)
	if err != nil {
		return utils.ErrorResponse(c, err)
	}

	claims, err := issuer.Verify(tokenString, tokenType)
	switch {
	case errors.Is(err, ErrWrongTokenType):
		return utils.ErrorResponse(c, utils.NewAuthenticationError("Invalid token type"))
	case err != nil:
		return utils.ErrorResponse(c, utils.NewAuthenticationError("Invalid or expired token"))
	}

	SetIdentity(c, claims)
	return c.Next()
}

// SetIdentity stores the caller taken from verified claims.
func SetIdentity(c *fiber.Ctx, claims *Claims) {
	c.Locals(IdentityKey, Identity{UserID: claims.UserID, Role: claims.Role})
}

// Policy decides whether a role may use a route.
type Policy func(models.Role) bool

var (
	AdminOnly Policy = func(r models.Role) bool { return r == models.RoleAdmin }
	Staff     Policy = func(r models.Role) bool { return r == models.RoleAdmin || r == models.RoleTeacher }
)

// Authorize enforces policy on the identity set by JWTMiddleware.
func Authorize(policy Policy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := CurrentIdentity(c)
		if !ok {
			return utils.ErrorResponse(c, utils.NewAuthenticationError("Missing user claims"))
		}
		if !policy(id.Role) {
			return utils.ErrorResponse(c, utils.NewAuthorizationError("Unauthorized access"))
		}
		return c.Next()
	}
}

// CurrentIdentity returns the authenticated caller, if any.
func CurrentIdentity(c *fiber.Ctx) (Identity, bool) {
	id, ok := c.Locals(IdentityKey).(Identity)
	return id, ok
}
