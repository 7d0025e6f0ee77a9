// internal/middleware/jwt.go
package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"dev-connector/internal/api"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenHeader is the header the web client sends its token in.
const TokenHeader = "x-auth-token"

const tokenIssuer = "dev-connector-api"

// TokenUser is the identity embedded in a token.
type TokenUser struct {
	ID uuid.UUID `json:"id"`
}

// Claims represents the JWT claims for our application
type Claims struct {
	User TokenUser `json:"user"`
	jwt.RegisteredClaims
}

// Authenticator issues and verifies HS256 tokens.
type Authenticator struct {
	secret     []byte
	expiration time.Duration
}

func NewAuthenticator(secret string, expiration time.Duration) *Authenticator {
	return &Authenticator{secret: []byte(secret), expiration: expiration}
}

// GenerateToken creates a new JWT token for the given user ID
func (a *Authenticator) GenerateToken(userID uuid.UUID) (string, error) {
	now := time.Now()
	claims := &Claims{
		User: TokenUser{ID: userID},
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(a.expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   userID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// ValidateToken validates the provided JWT token. Expiry is checked by the parser.
func (a *Authenticator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return a.secret, nil
		},
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.User.ID == uuid.Nil {
		return nil, errors.New("token carries no user")
	}
	return claims, nil
}

// tokenFromRequest reads the x-auth-token header, falling back to a bearer
// Authorization header.
func tokenFromRequest(r *http.Request) string {
	if token := strings.TrimSpace(r.Header.Get(TokenHeader)); token != "" {
		return token
	}
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}

// Require wraps a handler so it only runs for requests with a valid token.
// The caller's user ID is stored in the request context.
func (a *Authenticator) Require(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := tokenFromRequest(r)
		if tokenString == "" {
			api.WriteJSON(w, http.StatusUnauthorized, api.MessageResponse{Msg: "No token, authorization denied"})
			return
		}

		claims, err := a.ValidateToken(tokenString)
		if err != nil {
			api.WriteJSON(w, http.StatusUnauthorized, api.MessageResponse{Msg: "Token is not valid"})
			return
		}

		ctx := SetUserIDInContext(r.Context(), claims.User.ID)
		handler(w, r.WithContext(ctx))
	}
}

// Define a custom context key type to avoid collisions
type contextKey string

// UserIDKey is the key used to store the user ID in the context
const UserIDKey contextKey = "user_id"

// SetUserIDInContext saves the user ID in the request context
func SetUserIDInContext(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserIDFromContext retrieves the user ID from the context
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}
