package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const asciiLogo = `
                _         _  _
   _ __   __ _ (_) _ __  (_)| |_
  | '_ \ / _' || || '_ \ | || __|
  | |_) | (_| || || | | || || |_
  | .__/ \__, ||_||_| |_||_| \__|
  |_|    |___/`

var rootCmd = &cobra.Command{
	Use:   "pginit",
	Short: "PostgreSQL container-init provisioner",
	Long: asciiLogo + `

pginit provisions a fresh PostgreSQL server for an application stack: it
creates the identity provider's role and database, creates the application
database, and grants the role the privileges the stack needs, including
default privileges for tables and sequences created later.

It replaces the ad-hoc psql loop that usually lives in a container
entrypoint: connection retries while the server starts up, a real exit code
per failure class, and no password in the process list or the logs.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration (includes missing role password)
  11 - Database connection failed
  12 - User denied wipe approval
  13 - A provisioning statement failed
  14 - Verification found missing objects or privileges`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo()
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().Bool("help", false, "Help for pginit")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}
