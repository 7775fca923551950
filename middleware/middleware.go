package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"saffron/globals"
	"saffron/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrTokenFormat  = errors.New("invalid token format")
	ErrInvalidToken = errors.New("invalid token")
)

// JWT claims issued by the identity provider.
type Claims struct {
	Username string   `json:"username"`
	UserID   string   `json:"userId"`
	Role     []string `json:"role"`
	jwt.RegisteredClaims
}

type Auth struct {
	secret []byte
	issuer string
}

// NewAuth validates HS256 tokens signed with secret. A non-empty issuer
// must match the iss claim.
func NewAuth(secret, issuer string) *Auth {
	return &Auth{secret: []byte(secret), issuer: issuer}
}

// ValidateJWT parses an Authorization header value.
func (a *Auth) ValidateJWT(header string) (*Claims, error) {
	if header == "" {
		return nil, ErrMissingToken
	}
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return nil, ErrTokenFormat
	}
	if len(a.secret) == 0 {
		return nil, ErrInvalidToken
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: no userId claim", ErrInvalidToken)
	}
	return claims, nil
}

func withClaims(r *http.Request, claims *Claims) *http.Request {
	ctx := context.WithValue(r.Context(), globals.UserIDKey, claims.UserID)
	ctx = context.WithValue(ctx, globals.RoleKey, claims.Role)
	return r.WithContext(ctx)
}

func (a *Auth) Authenticate(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		claims, err := a.ValidateJWT(r.Header.Get("Authorization"))
		if err != nil {
			msg := "Invalid token"
			switch {
			case errors.Is(err, ErrMissingToken):
				msg = "Missing token"
			case errors.Is(err, ErrTokenFormat):
				msg = "Invalid token format"
			}
			utils.RespondWithError(w, http.StatusUnauthorized, msg)
			return
		}
		next(w, withClaims(r, claims), ps)
	}
}

// OptionalAuth attaches the caller identity when a valid token is present
// and proceeds either way.
func (a *Auth) OptionalAuth(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if claims, err := a.ValidateJWT(r.Header.Get("Authorization")); err == nil {
			r = withClaims(r, claims)
		}
		next(w, r, ps)
	}
}

// RequireRole rejects authenticated callers holding none of roles. It must
// run inside Authenticate.
func RequireRole(next httprouter.Handle, roles ...string) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		actor := utils.ActorFromRequest(r)
		for _, role := range roles {
			if actor.Has(role) {
				next(w, r, ps)
				return
			}
		}
		utils.RespondWithError(w, http.StatusForbidden, "Insufficient role")
	}
}
