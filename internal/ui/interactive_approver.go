package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/drinkbar/pginit/pkg/pginit"
)

// InteractiveApprover implements the Approver interface for console-based
// interactive confirmation. It prompts the user to type the role name to
// confirm the wipe.
type InteractiveApprover struct {
	verbose bool
	input   io.Reader
	output  io.Writer
}

// NewInteractiveApprover creates a new InteractiveApprover.
func NewInteractiveApprover(verbose bool) pginit.Approver {
	return &InteractiveApprover{
		verbose: verbose,
		input:   os.Stdin,
		output:  os.Stderr,
	}
}

// RequestApproval prompts the user to type the role name to confirm.
func (a *InteractiveApprover) RequestApproval(ctx context.Context, roleName string) (bool, error) {
	fmt.Fprintf(a.output, "\n⚠️  WARNING: You are about to DROP the role '%s' and its databases\n", roleName)
	fmt.Fprintln(a.output, "This will permanently delete all data in those databases!")
	fmt.Fprintf(a.output, "\nTo confirm, type the role name '%s' and press Enter: ", roleName)

	// Read user input with context cancellation support
	inputChan := make(chan string, 1)
	errChan := make(chan error, 1)

	go func() {
		reader := bufio.NewReader(a.input)
		input, err := reader.ReadString('\n')
		if err != nil {
			errChan <- err
			return
		}
		inputChan <- strings.TrimSpace(input)
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case err := <-errChan:
		return false, fmt.Errorf("failed to read input: %w", err)
	case input := <-inputChan:
		if input == roleName {
			fmt.Fprintln(a.output, "✓ Confirmed. Proceeding with wipe...")
			return true, nil
		}
		fmt.Fprintf(a.output, "✗ Input '%s' does not match role name '%s'. Operation cancelled.\n", input, roleName)
		return false, nil
	}
}

// Verify InteractiveApprover implements the Approver interface at compile time
var _ pginit.Approver = (*InteractiveApprover)(nil)
