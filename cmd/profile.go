package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	profileName      string
	profileVaultRoot string
	profileStartDate string
	profileActivate  bool
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage profiles",
	Long: `Manage profiles. Each profile scopes its own vault, chat sessions,
and pending confirmations; exactly one profile is active at a time.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return profileListRun(cmd)
	},
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		return profileListRun(cmd)
	},
}

var profileCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a profile and prepare its vault",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getAssistant()
		if err != nil {
			return err
		}
		vaultRoot := profileVaultRoot
		if vaultRoot == "" {
			vaultRoot = viper.GetString("vault_root")
		}
		if dryRun {
			ui.DryRunMsg("Would create profile %q with vault %s", args[0], vaultRoot)
			return nil
		}
		p, err := a.CreateProfile(cmd.Context(), args[0], vaultRoot, profileStartDate, profileActivate)
		if err != nil {
			return err
		}
		ui.Success("Created profile %s (%s)", p.DisplayName, p.ID)
		if p.Active {
			ui.Info("Profile is now active")
		}
		return nil
	},
}

var profileSwitchCmd = &cobra.Command{
	Use:   "switch <id>",
	Short: "Activate another profile",
	Long: `Activate another profile. Any pending confirmation belonging to the
previously active profile is discarded.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getAssistant()
		if err != nil {
			return err
		}
		p, err := a.SwitchProfile(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		ui.Success("Active profile: %s (vault %s)", p.DisplayName, p.VaultRoot)
		return nil
	},
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a profile's name, vault, or start date",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getAssistant()
		if err != nil {
			return err
		}
		if dryRun {
			ui.DryRunMsg("Would update profile %s", args[0])
			return nil
		}
		p, err := a.UpdateProfile(cmd.Context(), args[0], profileName, profileVaultRoot, profileStartDate)
		if err != nil {
			return err
		}
		ui.Success("Updated profile %s (%s)", p.DisplayName, p.ID)
		return nil
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the active profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getAssistant()
		if err != nil {
			return err
		}
		p, err := a.ActiveProfile(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(ui.Out, "%s\n", p.DisplayName)
		fmt.Fprintf(ui.Out, "  id:         %s\n", p.ID)
		fmt.Fprintf(ui.Out, "  vault:      %s\n", p.VaultRoot)
		fmt.Fprintf(ui.Out, "  start date: %s\n", p.StartDate)
		return nil
	},
}

func profileListRun(cmd *cobra.Command) error {
	a, err := getAssistant()
	if err != nil {
		return err
	}
	profiles, err := a.Profiles(cmd.Context())
	if err != nil {
		return err
	}
	if len(profiles) == 0 {
		ui.Info("No profiles yet. Create one with: noted profile create <name>")
		return nil
	}

	table := ui.Table([]string{"ID", "Name", "Vault", "Active"})
	for _, p := range profiles {
		active := ""
		if p.Active {
			active = "*"
		}
		table.Append([]string{p.ID, p.DisplayName, p.VaultRoot, active})
	}
	return table.Render()
}

func init() {
	profileCreateCmd.Flags().StringVar(&profileVaultRoot, "vault", "", "Vault root directory (default from config vault_root)")
	profileCreateCmd.Flags().StringVar(&profileStartDate, "start-date", "", "Start date (YYYY-MM-DD), defaults to today")
	profileCreateCmd.Flags().BoolVar(&profileActivate, "activate", true, "Activate the profile after creating it")
	profileUpdateCmd.Flags().StringVar(&profileName, "name", "", "New display name")
	profileUpdateCmd.Flags().StringVar(&profileVaultRoot, "vault", "", "New vault root directory")
	profileUpdateCmd.Flags().StringVar(&profileStartDate, "start-date", "", "New start date (YYYY-MM-DD)")

	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileCreateCmd)
	profileCmd.AddCommand(profileUpdateCmd)
	profileCmd.AddCommand(profileSwitchCmd)
	profileCmd.AddCommand(profileShowCmd)
	rootCmd.AddCommand(profileCmd)
}
