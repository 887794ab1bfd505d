package model

// Alert severities.
const (
	SeverityInfo  = "info"
	SeverityError = "error"
)
