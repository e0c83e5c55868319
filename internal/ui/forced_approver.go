package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/drinkbar/pginit/pkg/pginit"
)

// ForcedApprover implements the Approver interface for forced
// (non-interactive) approval. It displays a countdown and automatically
// approves afterwards, used when the --force flag is provided. Container
// init has no TTY, so this is the only way a wipe runs there.
type ForcedApprover struct {
	verbose bool
	output  io.Writer
	sleepFn func(time.Duration)
}

// NewForcedApprover creates a new ForcedApprover.
func NewForcedApprover(verbose bool) pginit.Approver {
	return &ForcedApprover{
		verbose: verbose,
		output:  os.Stderr,
		sleepFn: time.Sleep,
	}
}

// RequestApproval displays a countdown and automatically approves after it.
func (a *ForcedApprover) RequestApproval(ctx context.Context, roleName string) (bool, error) {
	fmt.Fprintf(a.output, "\n⚠️  FORCED WIPE: role '%s' and its databases will be dropped\n", roleName)

	countdownSeconds := int(pginit.DefaultForceApprovalCountdown.Seconds())
	for i := countdownSeconds; i > 0; i-- {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		default:
			fmt.Fprintf(a.output, "\rDropping in: %d seconds... (Press Ctrl+C to cancel)", i)
			a.sleepFn(1 * time.Second)
		}
	}

	fmt.Fprintf(a.output, "\r✓ Proceeding with wipe...                              \n")
	return true, nil
}

// Verify ForcedApprover implements the Approver interface at compile time
var _ pginit.Approver = (*ForcedApprover)(nil)
