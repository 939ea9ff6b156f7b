package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/me/cmdbot/pkg/model"
)

// tokenIssuer is the iss claim of dashboard tokens.
const tokenIssuer = "cmdbot"

// IssueToken signs an HS256 dashboard token for subject, valid for ttl.
// Operator tools sign with the same shared secret the dashboard verifies.
func IssueToken(secret []byte, subject string, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("dashboard secret is empty")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// verifyToken checks signature, algorithm, issuer and expiry, and returns
// the token subject.
func verifyToken(secret []byte, raw string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// bearerToken returns the token of an "Authorization: Bearer" header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// requireToken rejects requests without a valid dashboard token. A nil
// secret leaves the routes open.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(s.secret) == 0 {
			next.ServeHTTP(w, r)
			return
		}
		reqID := RequestIDFromContext(r.Context())
		raw := bearerToken(r)
		if raw == "" {
			respondError(w, reqID, http.StatusUnauthorized, &model.APIError{
				Code:    model.ErrUnauthorized,
				Message: "authentication required",
			})
			return
		}
		subject, err := verifyToken(s.secret, raw)
		if err != nil {
			s.logger.Warn("rejected dashboard token", "error", err, "request_id", reqID)
			respondError(w, reqID, http.StatusUnauthorized, &model.APIError{
				Code:    model.ErrUnauthorized,
				Message: "invalid token",
			})
			return
		}
		s.logger.Debug("dashboard token accepted", "subject", subject, "request_id", reqID)
		next.ServeHTTP(w, r)
	})
}
