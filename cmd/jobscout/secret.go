package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobscout/internal/secrets"
)

var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Manage secrets stored in the OS keychain",
	Long: "Stores API keys and webhook URLs in the OS keychain. Reference them from\n" +
		"the config as \"keyring:<account>\", e.g. api_key: keyring:openai.",
}

var secretSetCmd = &cobra.Command{
	Use:   "set <account>",
	Short: "Store a secret read from stdin",
	Args:  cobra.ExactArgs(1),
	RunE:  runSecretSet,
}

var secretDeleteCmd = &cobra.Command{
	Use:   "delete <account>",
	Short: "Remove a stored secret",
	Args:  cobra.ExactArgs(1),
	RunE:  runSecretDelete,
}

func init() {
	rootCmd.AddCommand(secretCmd)
	secretCmd.AddCommand(secretSetCmd, secretDeleteCmd)
}

func runSecretSet(cmd *cobra.Command, args []string) error {
	if isTerminal(os.Stdin) {
		fmt.Fprintf(os.Stderr, "value for %s: ", args[0])
	}
	value, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && value == "" {
		return fmt.Errorf("read secret: %w", err)
	}
	if err := secrets.Set(args[0], strings.TrimSpace(value)); err != nil {
		return err
	}
	fmt.Printf("stored %s%s\n", secrets.Prefix, args[0])
	return nil
}

func runSecretDelete(cmd *cobra.Command, args []string) error {
	if err := secrets.Delete(args[0]); err != nil {
		return err
	}
	fmt.Printf("deleted %s%s\n", secrets.Prefix, args[0])
	return nil
}
