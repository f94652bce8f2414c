package wizard

import (
	"math"
	"strings"
)

const RequiredMessage = "This field is required"

type ValidationResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// Validate checks that the step's field holds a usable answer. Performance
// composites count as present once they exist; their ranges are the widget's
// concern.
func Validate(step Step, form FormState) ValidationResult {
	if present(form[step.Field]) {
		return ValidationResult{Valid: true}
	}
	return ValidationResult{Message: RequiredMessage}
}

func present(value Value) bool {
	switch v := value.(type) {
	case TextValue:
		return strings.TrimSpace(string(v)) != ""
	case NumberValue:
		return v != 0 && !math.IsNaN(float64(v))
	case PerformanceValue:
		return true
	default:
		return false
	}
}
