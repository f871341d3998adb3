// Package auth implements the token and password capabilities consumed by
// the user service: HS256-signed access tokens and bcrypt verification.
package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/onoff/todo-api/internal/common"
)

// TokenParams bundles the signing configuration. Issuer and Audience are
// stamped into every issued token and required on validation.
type TokenParams struct {
	Secret           []byte
	Issuer           string
	Audience         string
	ValidityDuration time.Duration
}

// Claims carried by an access token. Subject holds the user id; Email and
// Name are informational and not used for authorization decisions.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// GenerateToken issues a signed access token for the given user id. The
// token expires exactly ValidityDuration after issuance; there is no
// revocation, a token stays valid until its natural expiry.
func GenerateToken(userID int64, email, fullName string, p TokenParams) (string, error) {
	now := time.Now().UTC()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    p.Issuer,
			Audience:  jwt.ClaimStrings{p.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ValidityDuration)),
			ID:        uuid.NewString(),
		},
		Email: email,
		Name:  fullName,
	})

	tokenString, err := token.SignedString(p.Secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetUserIDFromToken validates signature, issuer, audience and expiry (zero
// clock-skew leeway) and returns the subject user id. Expired tokens yield
// common.ErrTokenExpired, everything else common.ErrInvalidToken.
func GetUserIDFromToken(tokenString string, p TokenParams) (int64, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) { return p.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(p.Issuer),
		jwt.WithAudience(p.Audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, common.ErrTokenExpired
		}
		return 0, common.ErrInvalidToken
	}

	if !token.Valid {
		return 0, common.ErrInvalidToken
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, common.ErrInvalidToken
	}

	return userID, nil
}
