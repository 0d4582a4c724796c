package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/platform/apperr"
)

// Claims is the JWT payload issued at login.
type Claims struct {
	jwt.RegisteredClaims
	Role      string `json:"role"`
	PatientID string `json:"patient_id,omitempty"`
}

// IssueToken signs an HMAC bearer token for the given user.
func IssueToken(secret []byte, ttl time.Duration, userID uuid.UUID, role Role, patientID *uuid.UUID) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: string(role),
	}
	if patientID != nil {
		claims.PatientID = patientID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseToken verifies the signature and expiry of a bearer token and returns
// the principal it encodes. Every failure maps to Unauthenticated.
func ParseToken(secret []byte, tokenString string) (*Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.Newf(apperr.KindUnauthenticated, "unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperr.Wrap(apperr.KindUnauthenticated, "invalid or expired token", err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, apperr.New(apperr.KindUnauthenticated, "malformed token subject")
	}
	role, err := ParseRole(claims.Role)
	if err != nil {
		return nil, apperr.New(apperr.KindUnauthenticated, "token carries an unknown role")
	}

	p := &Principal{UserID: userID, Role: role}
	if claims.PatientID != "" {
		pid, err := uuid.Parse(claims.PatientID)
		if err != nil {
			return nil, apperr.New(apperr.KindUnauthenticated, "malformed patient link in token")
		}
		p.PatientID = &pid
	}
	return p, nil
}
