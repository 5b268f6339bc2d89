package quality

import (
	"fmt"
	"strings"
)

// RejectedError lists the reasons a candidate was rejected.
type RejectedError struct {
	Reasons []string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("candidate rejected: %s", strings.Join(e.Reasons, "; "))
}
