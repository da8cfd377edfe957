package httptransport

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
	dErrors "github.com/gabrielgmza/simply-backend-sub000/pkg/domain-errors"
)

// Claims are the JWT claims carried by access tokens. User tokens set
// user_id and session_id; employee tokens set employee_id instead.
type Claims struct {
	UserID     string `json:"user_id,omitempty"`
	EmployeeID string `json:"employee_id,omitempty"`
	SessionID  string `json:"session_id,omitempty"`
	jwt.RegisteredClaims
}

// Identity is the parsed, typed form of Claims that middleware injects
// into the request context.
type Identity struct {
	UserID     id.UserID
	EmployeeID id.EmployeeID
	SessionID  id.SessionID
}

// TokenValidator verifies bearer tokens and extracts the caller identity.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Identity, error)
}

// JWTService signs and validates HMAC access tokens.
type JWTService struct {
	signingKey []byte
	issuer     string
}

func NewJWTService(signingKey, issuer string) *JWTService {
	return &JWTService{signingKey: []byte(signingKey), issuer: issuer}
}

// GenerateUserToken issues a token for an end user session.
func (s *JWTService) GenerateUserToken(userID id.UserID, sessionID id.SessionID, expiresIn time.Duration) (string, error) {
	return s.sign(Claims{
		UserID:    userID.String(),
		SessionID: sessionID.String(),
	}, expiresIn)
}

// GenerateEmployeeToken issues a token for a back-office employee session.
func (s *JWTService) GenerateEmployeeToken(employeeID id.EmployeeID, sessionID id.SessionID, expiresIn time.Duration) (string, error) {
	return s.sign(Claims{
		EmployeeID: employeeID.String(),
		SessionID:  sessionID.String(),
	}, expiresIn)
}

func (s *JWTService) sign(claims Claims, expiresIn time.Duration) (string, error) {
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		Issuer:    s.issuer,
		ID:        uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.signingKey)
}

// ValidateToken parses and verifies a bearer token. All failures map to
// CodeUnauthorized; the caller never learns which check rejected it.
func (s *JWTService) ValidateToken(tokenString string) (*Identity, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	identity := &Identity{}
	if claims.UserID != "" {
		identity.UserID, err = id.ParseUserID(claims.UserID)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
		}
	}
	if claims.EmployeeID != "" {
		identity.EmployeeID, err = id.ParseEmployeeID(claims.EmployeeID)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
		}
	}
	if claims.SessionID != "" {
		identity.SessionID, err = id.ParseSessionID(claims.SessionID)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
		}
	}
	if identity.UserID.IsNil() && identity.EmployeeID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token carries no identity")
	}
	return identity, nil
}
