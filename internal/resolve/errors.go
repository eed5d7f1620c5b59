package resolve

import "fmt"

// NotFoundError indicates no canonical system id could be resolved for a
// local asset id. It carries the offending id so the operator can fix the
// catalog or alias data; resolution failures are data problems and are
// never retried.
type NotFoundError struct {
	LocalID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("unable to resolve canonical system id for %q; verify the systems catalog includes this asset", e.LocalID)
}
