package timeline

import (
	"errors"
	"fmt"
)

// Load error codes.
const (
	ErrCodeNotFound  = "E_NOT_FOUND"  // timeline file does not exist
	ErrCodeRead      = "E_READ"       // file exists but could not be read
	ErrCodeEmpty     = "E_EMPTY"      // document is empty
	ErrCodeSchema    = "E_SCHEMA"     // document does not satisfy the schema
	ErrCodeNoEntries = "E_NO_ENTRIES" // entries list is empty
)

// LoadError is returned for any failure to produce a Timeline. It is fatal to
// dispatcher initialisation.
type LoadError struct {
	Code    string
	Path    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Path, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// IsLoadError reports whether err is, or wraps, a LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

// LoadErrorCode returns the code of a wrapped LoadError, or the empty string.
func LoadErrorCode(err error) string {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}
