package app

import (
	"fmt"
	"net/http"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func validationError(message string, details any) *DomainError {
	return domainError(http.StatusBadRequest, "VALIDATION_ERROR", message, details)
}

func authenticationError(message string) *DomainError {
	return domainError(http.StatusBadRequest, "AUTHENTICATION_ERROR", message, nil)
}

func authorizationFailed(cause error) *DomainError {
	var details any
	if cause != nil {
		details = map[string]any{"reason": cause.Error()}
	}
	return domainError(http.StatusForbidden, "AUTHORIZATION_FAILED", "Authorization Failed", details)
}

func notFoundError() *DomainError {
	return domainError(http.StatusNotFound, "NOT_FOUND", "Not Found", nil)
}
