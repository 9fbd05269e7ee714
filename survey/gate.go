package survey

import (
	"time"

	"github.com/mbolis/opinio/model"
)

type Access int

const (
	Open Access = iota
	Locked
)

func (a Access) String() string {
	if a == Locked {
		return "locked"
	}
	return "open"
}

// Gate decides whether s is open to the public at now. A survey locks only
// once now is strictly after its expiry; it is never cached.
func Gate(s model.Survey, now time.Time) Access {
	if s.ExpiresAt != nil && now.After(*s.ExpiresAt) {
		return Locked
	}
	return Open
}

// CheckOpen returns ErrLocked for a survey past its expiry.
func CheckOpen(s model.Survey, now time.Time) error {
	if Gate(s, now) == Locked {
		return ErrLocked
	}
	return nil
}
