package plan

import "errors"

// Error kinds shared by every stage of an analysis. Stages wrap them with
// fmt.Errorf("%w: ...") so callers can branch with errors.Is.
var (
	// ErrParse reports input that is not well-formed JSON.
	ErrParse = errors.New("malformed plan document")
	// ErrStructural reports a document or graph whose shape is unusable.
	ErrStructural = errors.New("invalid plan structure")
	// ErrValidation reports an operator node missing a required field.
	ErrValidation = errors.New("invalid plan node")
	// ErrResourceLimit reports input larger than the configured ceiling.
	ErrResourceLimit = errors.New("plan exceeds resource limit")
)
