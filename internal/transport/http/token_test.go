package httptransport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
	dErrors "github.com/gabrielgmza/simply-backend-sub000/pkg/domain-errors"
)

func TestJWTService_UserTokenRoundTrip(t *testing.T) {
	svc := NewJWTService("test-signing-key", "simply")
	userID := id.NewUserID()
	sessionID := id.NewSessionID()

	token, err := svc.GenerateUserToken(userID, sessionID, time.Hour)
	require.NoError(t, err)

	identity, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, identity.UserID)
	assert.Equal(t, sessionID, identity.SessionID)
	assert.True(t, identity.EmployeeID.IsNil())
}

func TestJWTService_EmployeeTokenRoundTrip(t *testing.T) {
	svc := NewJWTService("test-signing-key", "simply")
	employeeID := id.NewEmployeeID()

	token, err := svc.GenerateEmployeeToken(employeeID, id.NewSessionID(), time.Hour)
	require.NoError(t, err)

	identity, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, employeeID, identity.EmployeeID)
	assert.True(t, identity.UserID.IsNil())
}

func TestJWTService_ExpiredTokenRejected(t *testing.T) {
	svc := NewJWTService("test-signing-key", "simply")

	token, err := svc.GenerateUserToken(id.NewUserID(), id.NewSessionID(), -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestJWTService_WrongKeyRejected(t *testing.T) {
	token, err := NewJWTService("key-one", "simply").GenerateUserToken(id.NewUserID(), id.NewSessionID(), time.Hour)
	require.NoError(t, err)

	_, err = NewJWTService("key-two", "simply").ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestJWTService_GarbageRejected(t *testing.T) {
	_, err := NewJWTService("test-signing-key", "simply").ValidateToken("not-a-jwt")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
