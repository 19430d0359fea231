package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoData is returned when a scan or load finds nothing usable.
var ErrNoData = errors.New("no data files")

// NotFoundError reports a missing source together with every location tried.
type NotFoundError struct {
	What  string
	Tried []string
}

func (e *NotFoundError) Error() string {
	if len(e.Tried) == 0 {
		return e.What + " not found"
	}
	return fmt.Sprintf("%s not found, tried: %s", e.What, strings.Join(e.Tried, ", "))
}
