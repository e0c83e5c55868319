package cli

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/drinkbar/pginit/internal/secret"
	"github.com/drinkbar/pginit/internal/ui"
	"github.com/drinkbar/pginit/pkg/pginit"
)

// resolveRolePassword picks the password source by precedence and resolves
// it. Explicit sources (--password-file, --aws-secret) win over the
// environment variable. When the variable is unset and a human is at the
// terminal, a hidden prompt is the last resort; in container init there is
// no terminal and the missing password surfaces as a config error.
func resolveRolePassword(ctx context.Context, passwordFile, awsSecret, passwordEnv string, verbose bool) (string, error) {
	var source secret.PasswordSource

	switch {
	case passwordFile != "":
		source = secret.NewFileSource(passwordFile)
	case awsSecret != "":
		awsSource, err := secret.NewAWSSecretsManagerSource(ctx, awsSecret)
		if err != nil {
			return "", err
		}
		source = awsSource
	default:
		source = secret.NewEnvSource(passwordEnv)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "[VERBOSE] Role password source: %s\n", source)
	}

	password, err := source.Resolve(ctx)
	if err == nil {
		return password, nil
	}

	// Prompting only makes sense for the default env source.
	if passwordFile == "" && awsSecret == "" && ui.IsInteractive() {
		return promptRolePassword(passwordEnv)
	}

	return "", err
}

// promptRolePassword reads the password from the terminal without echo.
func promptRolePassword(passwordEnv string) (string, error) {
	fmt.Fprintf(os.Stderr, "$%s is not set. Enter password for the new role: ", passwordEnv)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password from terminal: %w", err)
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("entered password is empty: %w", pginit.ErrMissingPassword)
	}
	return string(raw), nil
}
