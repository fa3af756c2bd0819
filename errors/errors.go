package errors

import "fmt"

var (
	ErrInvalidParticipants = fmt.Errorf("invalid participant pair")
	ErrUnauthorized        = fmt.Errorf("participant identity mismatch")
	ErrNotJoined           = fmt.Errorf("room is not joined")
	ErrEmptyMessage        = fmt.Errorf("message body is empty")
	ErrUnknownMessage      = fmt.Errorf("message has not been observed")
	ErrTransport           = fmt.Errorf("transport failure")

	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrEmptyWords         = fmt.Errorf("no words have been found")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity rules")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrForeignRoom        = fmt.Errorf("participant does not belong to room")
)
