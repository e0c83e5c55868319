package pginit

import "context"

// Approver gates destructive operations. The wipe workflow drops the
// provisioned role and both databases, so it asks for approval first.
type Approver interface {
	// RequestApproval asks for confirmation to wipe the named role and its
	// databases. Returns (true, nil) to proceed, (false, nil) when the user
	// declines, or an error when approval could not be collected.
	RequestApproval(ctx context.Context, roleName string) (bool, error)
}
