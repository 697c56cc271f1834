package upnp

import "fmt"

// UPnP error codes used by the ContentDirectory control surface (spec.md §4.3).
const (
	InvalidActionErrorCode = 401
	InvalidArgsErrorCode   = 402
	NoSuchObjectErrorCode  = 701
)

// Error is a UPnP fault: a numeric code plus a human-readable description,
// as carried in a SOAP <UPnPError> fault detail.
type Error struct {
	Code uint
	Desc string
}

func (e Error) Error() string {
	return fmt.Sprintf("UPnPError %d: %s", e.Code, e.Desc)
}

// Errorf builds an Error with a formatted description.
func Errorf(code uint, format string, a ...interface{}) error {
	return Error{Code: code, Desc: fmt.Sprintf(format, a...)}
}

// ConvertError coerces any error into a UPnP Error, defaulting unrecognised
// errors to a generic action-failed code.
func ConvertError(err error) Error {
	if ue, ok := err.(Error); ok {
		return ue
	}
	return Error{Code: 501, Desc: err.Error()}
}
