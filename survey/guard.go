package survey

import "github.com/mbolis/opinio/model"

type Operation string

const (
	ReadResults Operation = "read_results"
	Update      Operation = "update"
	Delete      Operation = "delete"
)

// Anonymous is the caller id of a request without credentials.
const Anonymous = ""

// Authorize allows an owner-only operation on s. Only the owner passes; an
// anonymous caller never does. Existence must be checked by the caller first.
func Authorize(s model.Survey, callerID string, op Operation) error {
	if callerID == Anonymous || callerID != s.OwnerID {
		return ErrUnauthorized
	}
	return nil
}
