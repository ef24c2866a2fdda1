package main

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/reail-cli/internal/model"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change device preferences",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current settings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := initApp(cmd.Context(), cfg, "local")
		if err != nil {
			return err
		}
		defer env.Close()

		s := env.Settings.Refresh(cmd.Context())
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), s)
		}
		formatSettings(cmd.OutOrStdout(), s)
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting (language, privacy_mode, save_history, auto_delete, advanced_scan)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		apply, err := settingSetter(args[0], args[1])
		if err != nil {
			return err
		}

		env, err := initApp(cmd.Context(), cfg, "local")
		if err != nil {
			return err
		}
		defer env.Close()

		s, err := env.Settings.Update(cmd.Context(), apply)
		if err != nil {
			return eris.Wrap(err, "settings set")
		}
		formatSettings(cmd.OutOrStdout(), s)
		return nil
	},
}

// settingSetter parses value for key and returns the mutation to apply.
func settingSetter(key, value string) (func(*model.Settings), error) {
	key = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), "-", "_")
	value = strings.TrimSpace(value)

	parseBool := func() (bool, error) {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return false, eris.Errorf("settings: %s expects true or false, got %q", key, value)
		}
		return b, nil
	}

	switch key {
	case "language":
		lang := model.Language(strings.ToLower(value))
		if lang != model.LanguageEnglish && lang != model.LanguageSpanish {
			return nil, eris.Errorf("settings: unsupported language %q (en, es)", value)
		}
		return func(s *model.Settings) { s.Language = lang }, nil
	case "auto_delete":
		ad := model.AutoDelete(strings.ToLower(value))
		if ad != model.AutoDeleteNever && ad != model.AutoDelete7Days && ad != model.AutoDelete30Days {
			return nil, eris.Errorf("settings: auto_delete must be never, 7 or 30, got %q", value)
		}
		return func(s *model.Settings) { s.AutoDelete = ad }, nil
	case "privacy_mode", "save_history", "advanced_scan":
		b, err := parseBool()
		if err != nil {
			return nil, err
		}
		return func(s *model.Settings) {
			switch key {
			case "privacy_mode":
				s.PrivacyMode = b
			case "save_history":
				s.SaveHistory = b
			default:
				s.AdvancedScan = b
			}
		}, nil
	default:
		return nil, eris.Errorf("settings: unknown key %q", key)
	}
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}
