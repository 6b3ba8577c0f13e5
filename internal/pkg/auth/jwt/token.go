package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
)

const (
	// SessionExpiration bounds a portal session when the access token has no usable expiry.
	SessionExpiration = 24 * time.Hour

	// TokenIssuer identifies the issuer of the session token.
	TokenIssuer = "CampusPortal"
)

// GenerateToken signs payload with HS256, valid for duration from now.
func GenerateToken(payload *Payload, secretKey string, duration time.Duration) (string, error) {
	now := time.Now()

	payload.StandardClaims = jwt.StandardClaims{
		ExpiresAt: now.Add(duration).Unix(),
		IssuedAt:  now.Unix(),
		Issuer:    TokenIssuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)

	return token.SignedString([]byte(secretKey))
}

// ParseToken parses and validates a session token signed with secretKey.
func ParseToken(tokenString string, secretKey string) (*Payload, error) {
	claims := &Payload{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secretKey), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	if claims.Issuer != TokenIssuer {
		return nil, errors.New("unexpected token issuer")
	}

	return claims, nil
}

// AccessTokenExpiry reads the exp claim of a backend access token without verifying its
// signature; the portal does not hold the auth service's key. ok is false when the token
// is malformed or carries no exp.
func AccessTokenExpiry(accessToken string) (expiry time.Time, ok bool) {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}, false
	}

	exp, isNumber := claims["exp"].(float64)
	if !isNumber {
		return time.Time{}, false
	}
	return time.Unix(int64(exp), 0), true
}
