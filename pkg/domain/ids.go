// Package domain defines the typed identifiers shared across modules.
// Each ID is a distinct UUID-backed type so the compiler rejects passing
// a session where a user belongs. Parsing enforces the invariant that IDs
// are valid, non-empty, non-nil UUIDs.
package domain

import (
	"github.com/google/uuid"

	dErrors "github.com/gabrielgmza/simply-backend-sub000/pkg/domain-errors"
)

type (
	UserID        uuid.UUID
	DeviceID      uuid.UUID
	SessionID     uuid.UUID
	TransactionID uuid.UUID
	EmployeeID    uuid.UUID
	AlertID       uuid.UUID
	AssessmentID  uuid.UUID
	EvaluationID  uuid.UUID
	AnomalyID     uuid.UUID
)

func parseID[T ~[16]byte](kind, raw string) (T, error) {
	var zero T
	if raw == "" {
		return zero, dErrors.Newf(dErrors.CodeInvalidInput, "%s id is required", kind)
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return zero, dErrors.Newf(dErrors.CodeInvalidInput, "invalid %s id %q", kind, raw)
	}
	if parsed == uuid.Nil {
		return zero, dErrors.Newf(dErrors.CodeInvalidInput, "%s id must not be the nil uuid", kind)
	}
	return T(parsed), nil
}

func NewUserID() UserID               { return UserID(uuid.New()) }
func NewDeviceID() DeviceID           { return DeviceID(uuid.New()) }
func NewSessionID() SessionID         { return SessionID(uuid.New()) }
func NewTransactionID() TransactionID { return TransactionID(uuid.New()) }
func NewEmployeeID() EmployeeID       { return EmployeeID(uuid.New()) }
func NewAlertID() AlertID             { return AlertID(uuid.New()) }
func NewAssessmentID() AssessmentID   { return AssessmentID(uuid.New()) }
func NewEvaluationID() EvaluationID   { return EvaluationID(uuid.New()) }
func NewAnomalyID() AnomalyID         { return AnomalyID(uuid.New()) }

func ParseUserID(raw string) (UserID, error)               { return parseID[UserID]("user", raw) }
func ParseDeviceID(raw string) (DeviceID, error)           { return parseID[DeviceID]("device", raw) }
func ParseSessionID(raw string) (SessionID, error)         { return parseID[SessionID]("session", raw) }
func ParseTransactionID(raw string) (TransactionID, error) { return parseID[TransactionID]("transaction", raw) }
func ParseEmployeeID(raw string) (EmployeeID, error)       { return parseID[EmployeeID]("employee", raw) }
func ParseAlertID(raw string) (AlertID, error)             { return parseID[AlertID]("alert", raw) }
func ParseAssessmentID(raw string) (AssessmentID, error)   { return parseID[AssessmentID]("assessment", raw) }
func ParseEvaluationID(raw string) (EvaluationID, error)   { return parseID[EvaluationID]("evaluation", raw) }
func ParseAnomalyID(raw string) (AnomalyID, error)         { return parseID[AnomalyID]("anomaly", raw) }

func (i UserID) String() string        { return uuid.UUID(i).String() }
func (i DeviceID) String() string      { return uuid.UUID(i).String() }
func (i SessionID) String() string     { return uuid.UUID(i).String() }
func (i TransactionID) String() string { return uuid.UUID(i).String() }
func (i EmployeeID) String() string    { return uuid.UUID(i).String() }
func (i AlertID) String() string       { return uuid.UUID(i).String() }
func (i AssessmentID) String() string  { return uuid.UUID(i).String() }
func (i EvaluationID) String() string  { return uuid.UUID(i).String() }
func (i AnomalyID) String() string     { return uuid.UUID(i).String() }

func (i UserID) IsNil() bool        { return uuid.UUID(i) == uuid.Nil }
func (i DeviceID) IsNil() bool      { return uuid.UUID(i) == uuid.Nil }
func (i SessionID) IsNil() bool     { return uuid.UUID(i) == uuid.Nil }
func (i TransactionID) IsNil() bool { return uuid.UUID(i) == uuid.Nil }
func (i EmployeeID) IsNil() bool    { return uuid.UUID(i) == uuid.Nil }
func (i AlertID) IsNil() bool       { return uuid.UUID(i) == uuid.Nil }
func (i AssessmentID) IsNil() bool  { return uuid.UUID(i) == uuid.Nil }
func (i EvaluationID) IsNil() bool  { return uuid.UUID(i) == uuid.Nil }
func (i AnomalyID) IsNil() bool     { return uuid.UUID(i) == uuid.Nil }

// Text marshaling keeps IDs as canonical UUID strings in JSON and logs.

func (i UserID) MarshalText() ([]byte, error)        { return []byte(i.String()), nil }
func (i DeviceID) MarshalText() ([]byte, error)      { return []byte(i.String()), nil }
func (i SessionID) MarshalText() ([]byte, error)     { return []byte(i.String()), nil }
func (i TransactionID) MarshalText() ([]byte, error) { return []byte(i.String()), nil }
func (i EmployeeID) MarshalText() ([]byte, error)    { return []byte(i.String()), nil }
func (i AlertID) MarshalText() ([]byte, error)       { return []byte(i.String()), nil }
func (i AssessmentID) MarshalText() ([]byte, error)  { return []byte(i.String()), nil }
func (i EvaluationID) MarshalText() ([]byte, error)  { return []byte(i.String()), nil }
func (i AnomalyID) MarshalText() ([]byte, error)     { return []byte(i.String()), nil }

func unmarshalID[T ~[16]byte](kind string, dst *T, text []byte) error {
	parsed, err := parseID[T](kind, string(text))
	if err != nil {
		return err
	}
	*dst = parsed
	return nil
}

func (i *UserID) UnmarshalText(text []byte) error    { return unmarshalID("user", i, text) }
func (i *DeviceID) UnmarshalText(text []byte) error  { return unmarshalID("device", i, text) }
func (i *SessionID) UnmarshalText(text []byte) error { return unmarshalID("session", i, text) }
func (i *TransactionID) UnmarshalText(text []byte) error {
	return unmarshalID("transaction", i, text)
}
func (i *EmployeeID) UnmarshalText(text []byte) error { return unmarshalID("employee", i, text) }
func (i *AlertID) UnmarshalText(text []byte) error    { return unmarshalID("alert", i, text) }
func (i *AssessmentID) UnmarshalText(text []byte) error {
	return unmarshalID("assessment", i, text)
}
func (i *EvaluationID) UnmarshalText(text []byte) error {
	return unmarshalID("evaluation", i, text)
}
func (i *AnomalyID) UnmarshalText(text []byte) error { return unmarshalID("anomaly", i, text) }
