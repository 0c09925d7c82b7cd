package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/datachat-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set DataChat configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, key := range cfgpkg.Keys {
			v, err := c.Get(key)
			if err != nil {
				return err
			}
			if isSecret(key) {
				v = mask(v)
			}
			fmt.Fprintf(out, "%s: %s\n", key, v)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		if key == "default_provider" {
			switch strings.ToLower(val) {
			case "gemini", "google":
				val = "gemini"
			case "openrouter":
				val = "openrouter"
			case "ollama", "local":
				val = "ollama"
			default:
				return fmt.Errorf("invalid default_provider: %s (use gemini, openrouter or ollama)", val)
			}
		}
		if err := c.Set(key, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), okMark, "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func isSecret(key string) bool { return strings.HasSuffix(key, "api_key") }

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
