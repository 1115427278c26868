package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"worklog/models"
	"worklog/store"
)

type contextKey string

const UserContextKey contextKey = "user"

// Claims is the signed token payload. Authorization is stateless: every
// request is decided from these claims plus a store lookup, with no
// server-side session.
type Claims struct {
	UID            uint   `json:"uid"`
	Name           string `json:"name"`
	Permission     string `json:"permission"`
	CredentialHash string `json:"credential_hash"`
	jwt.RegisteredClaims
}

var (
	jwtSecret   []byte
	jwtIssuer   string
	jwtAudience string
)

// Configure sets the HS256 signing secret and the issuer/audience pair
// enforced on both sides.
func Configure(secret, issuer, audience string) {
	jwtSecret = []byte(secret)
	jwtIssuer = issuer
	jwtAudience = audience
}

func GenerateToken(user *models.User, expiration time.Duration) (string, error) {
	claims := &Claims{
		UID:            user.ID,
		Name:           user.Name,
		Permission:     user.Permission().String(),
		CredentialHash: user.PasswordHash,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    jwtIssuer,
			Audience:  jwt.ClaimStrings{jwtAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

func ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (interface{}, error) {
			return jwtSecret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(jwtIssuer),
		jwt.WithAudience(jwtAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrSignatureInvalid
}

// Auth validates the request token and loads the caller into the request
// context. The credential-hash claim must match the user's current stored
// hash, so a password change invalidates tokens issued before it.
func Auth(st store.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var tokenString string
			cookie, err := r.Cookie("token")
			if err == nil {
				tokenString = cookie.Value
			}

			if tokenString == "" {
				authHeader := r.Header.Get("Authorization")
				if authHeader != "" {
					parts := strings.Split(authHeader, " ")
					if len(parts) == 2 && parts[0] == "Bearer" {
						tokenString = parts[1]
					}
				}
			}

			if tokenString == "" {
				denyJSON(w, http.StatusUnauthorized, "missing token")
				return
			}

			claims, err := ValidateToken(tokenString)
			if err != nil {
				denyJSON(w, http.StatusUnauthorized, "invalid token")
				return
			}

			user, err := st.GetUser(r.Context(), claims.UID)
			if err != nil {
				denyJSON(w, http.StatusUnauthorized, "unknown user")
				return
			}
			if user.PasswordHash != claims.CredentialHash {
				denyJSON(w, http.StatusUnauthorized, "stale token")
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermission gates a route group on the resolved level.
func RequirePermission(level models.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUserFromContext(r.Context())
			if user == nil {
				denyJSON(w, http.StatusUnauthorized, "missing token")
				return
			}
			if !user.Permission().AtLeast(level) {
				denyJSON(w, http.StatusForbidden, "insufficient permission")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func GetUserFromContext(ctx context.Context) *models.User {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

func denyJSON(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
