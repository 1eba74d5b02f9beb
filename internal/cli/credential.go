package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	credentialCmd := &cobra.Command{
		Use:   "credential",
		Short: "Manage the analysis service credential",
	}

	set := &cobra.Command{
		Use:   "set [api-key]",
		Short: "Store the API key (no argument removes it)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCredentialSet,
	}

	credentialCmd.AddCommand(set)
	RootCmd.AddCommand(credentialCmd)
}

func runCredentialSet(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Storage.Backend == "memory" {
		return fmt.Errorf("storage backend %q does not outlive this command; use sqlite or firestore", cfg.Storage.Backend)
	}

	app, err := buildApp(cmd.Context(), cfg, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	key := ""
	if len(args) == 1 {
		key = args[0]
	}
	if err := app.Vault.Set(cmd.Context(), key); err != nil {
		return err
	}

	if key == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "credential removed")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "credential stored")
	}
	return nil
}
