package services

// Service errors
var (
	ErrBaseURLNotConfigured = &ServiceError{Message: "base_url not configured"}
	ErrRaceIDRequired       = &ServiceError{Message: "race id is required"}
)

// ServiceError represents a service-level error
type ServiceError struct {
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}
