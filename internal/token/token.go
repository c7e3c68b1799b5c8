// Package token verifies bearer tokens. New component, no direct teacher
// analogue — the teacher's rest-api-svc passes user_id as a plain request
// field and never verifies credentials. Backed by
// github.com/golang-jwt/jwt/v5 (grounded on the ecosystem: present across
// KretovDmitry-shortener, wadjakorn-go-url-shortener, and
// srinivasarynh-url_shortener's go.mod files), following the teacher's
// general "verify, don't mint" boundary discipline.
package token

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/go-systems-lab/shortlink/internal/apperr"
	"github.com/go-systems-lab/shortlink/internal/model"
)

// Verifier validates HMAC-signed bearer tokens against a fixed secret.
type Verifier struct {
	secret []byte
}

// New builds a Verifier bound to secret.
func New(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Validate parses and verifies raw, per spec §4.M: any non-HMAC algorithm
// yields INVALID_SIGNING_KEY; an expired token yields TOKEN_EXPIRED; any
// other parse failure yields INVALID_TOKEN. The subject claim is coerced
// from either a JSON number or a numeric string; a non-coercible subject
// yields UserID 0.
func (v *Verifier) Validate(raw string) (model.UserClaim, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenUnverifiable):
			return model.UserClaim{}, apperr.Wrap(apperr.InvalidSigningKey, err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return model.UserClaim{}, apperr.Wrap(apperr.TokenExpired, err)
		default:
			return model.UserClaim{}, apperr.Wrap(apperr.InvalidToken, err)
		}
	}

	return model.UserClaim{
		UserID: coerceSubject(claims["sub"]),
		Email:  stringClaim(claims["email"]),
		Role:   stringClaim(claims["role"]),
	}, nil
}

func coerceSubject(v any) int64 {
	switch val := v.(type) {
	case float64:
		return int64(val)
	case string:
		var n int64
		if _, err := fmt.Sscanf(val, "%d", &n); err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func stringClaim(v any) string {
	s, _ := v.(string)
	return s
}
