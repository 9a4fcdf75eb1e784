package core

import "errors"

// Error classes shared by every component. Callers wrap them with fmt.Errorf("...: %w")
// and classify with errors.Is.
var (
	ErrUnsupportedFormat  = errors.New("unsupported format")
	ErrDecoding           = errors.New("decoding error")
	ErrValidation         = errors.New("validation error")
	ErrCollectionNotFound = errors.New("collection not found")
	ErrStorage            = errors.New("storage error")
	ErrExternalService    = errors.New("external service error")
	ErrConfig             = errors.New("invalid configuration")
)

// IsClientError reports whether err was caused by the uploaded input rather than by
// the service or its collaborators.
func IsClientError(err error) bool {
	return errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrDecoding) ||
		errors.Is(err, ErrValidation)
}
