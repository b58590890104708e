package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage configuration profiles",
	Long: `Manage configuration profiles for different accounts.

Profiles allow you to quickly switch between calendar accounts, e.g. a
Google work calendar and an Outlook personal one.`,
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all profiles",
	RunE:  runProfileList,
}

var profileShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show profile settings",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProfileShow,
}

var profileAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a new profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileAdd,
}

var profileSetDefaultCmd = &cobra.Command{
	Use:   "default <name>",
	Short: "Set the default profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileSetDefault,
}

var profileEditCmd = &cobra.Command{
	Use:   "edit <name>",
	Short: "Edit a profile's settings",
	Long: `Edit a profile's settings using flags.

Example:
  yotei profile edit work --calendar-id=team@group.calendar.google.com
  yotei profile edit personal --provider=outlook --client-id=<azure-app-id>`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileEdit,
}

// profileFlags maps flag names to the config keys they set. Shared by
// add and edit so the two commands cannot drift apart.
var profileFlags = map[string]string{
	"provider":         "provider",
	"credentials-file": "credentials_file",
	"token-file":       "token_file",
	"client-id":        "client_id",
	"tenant-id":        "tenant_id",
	"calendar-id":      "calendar_id",
	"timezone":         "timezone",
	"log-level":        "log_level",
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileAddCmd)
	profileCmd.AddCommand(profileSetDefaultCmd)
	profileCmd.AddCommand(profileEditCmd)

	for _, c := range []*cobra.Command{profileAddCmd, profileEditCmd} {
		c.Flags().String("provider", "", "Calendar provider (google|outlook)")
		c.Flags().String("credentials-file", "", "Path to Google credentials file")
		c.Flags().String("token-file", "", "Path to token file")
		c.Flags().String("client-id", "", "Azure app client ID (outlook)")
		c.Flags().String("tenant-id", "", "Azure tenant ID (outlook)")
		c.Flags().String("calendar-id", "", "Calendar to operate on")
		c.Flags().String("timezone", "", "IANA timezone")
		c.Flags().String("log-level", "", "Log level")
		c.Flags().Int("free-slot-min", 0, "Minimum free slot length in minutes")
	}
}

func runProfileList(cmd *cobra.Command, args []string) error {
	profiles := viper.GetStringMap("profiles")
	defaultProfile := viper.GetString("default_profile")

	if len(profiles) == 0 {
		fmt.Println("No profiles configured.")
		fmt.Println("\nAdd one with: yotei profile add <name> --provider=google --credentials-file=<path>")
		return nil
	}

	fmt.Println("Available profiles:")
	fmt.Println("─────────────────────────────────────────────────")

	for name := range profiles {
		marker := "  "
		if name == defaultProfile {
			marker = "* "
		}
		fmt.Printf("%s%s\n", marker, name)
	}

	fmt.Println("─────────────────────────────────────────────────")
	if defaultProfile != "" {
		fmt.Printf("Default: %s\n", defaultProfile)
	}
	fmt.Println("\nUse 'yotei profile show <name>' for details")

	return nil
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	var profileName string
	if len(args) > 0 {
		profileName = args[0]
	} else {
		profileName = viper.GetString("default_profile")
		if profileName == "" {
			return fmt.Errorf("no profile specified and no default profile set")
		}
	}

	profileKey := "profiles." + profileName
	if !viper.IsSet(profileKey) {
		return fmt.Errorf("profile '%s' not found", profileName)
	}

	settings := viper.GetStringMap(profileKey)

	fmt.Printf("Profile: %s\n", profileName)
	if profileName == viper.GetString("default_profile") {
		fmt.Println("(default)")
	}
	fmt.Println("─────────────────────────────────────────────────")

	fmt.Println("\n📁 Account:")
	printSetting(settings, "provider", "provider")
	printSetting(settings, "credentials_file", "credentials-file")
	printSetting(settings, "token_file", "token-file")
	printSetting(settings, "client_id", "client-id")
	printSetting(settings, "tenant_id", "tenant-id")
	printSetting(settings, "calendar_id", "calendar-id")

	fmt.Println("\n⚙️  Behavior:")
	printSetting(settings, "timezone", "timezone")
	printSetting(settings, "free_slot_min", "free-slot-min")
	printSetting(settings, "log_level", "log-level")

	fmt.Println()
	return nil
}

func printSetting(settings map[string]interface{}, key, displayKey string) {
	if val, ok := settings[key]; ok {
		fmt.Printf("  %s: %v\n", displayKey, val)
	}
}

func runProfileAdd(cmd *cobra.Command, args []string) error {
	profileName := args[0]

	// Check if profile already exists
	profileKey := "profiles." + profileName
	if viper.IsSet(profileKey) {
		return fmt.Errorf("profile '%s' already exists. Use 'yotei profile edit %s' to modify it", profileName, profileName)
	}

	profile := profileFromFlags(cmd, make(map[string]interface{}))

	// Save to config
	if err := saveProfileToConfig(profileName, profile); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	fmt.Printf("✓ Profile '%s' created\n", profileName)
	fmt.Printf("\nUse it with: yotei -p %s ask \"今日の予定を教えて\"\n", profileName)
	fmt.Printf("Set as default: yotei profile default %s\n", profileName)

	return nil
}

func runProfileSetDefault(cmd *cobra.Command, args []string) error {
	profileName := args[0]

	// Check if profile exists
	profileKey := "profiles." + profileName
	if !viper.IsSet(profileKey) {
		return fmt.Errorf("profile '%s' not found", profileName)
	}

	// Update config file
	if err := setDefaultProfileInConfig(profileName); err != nil {
		return fmt.Errorf("failed to set default profile: %w", err)
	}

	fmt.Printf("✓ Default profile set to '%s'\n", profileName)
	return nil
}

func runProfileEdit(cmd *cobra.Command, args []string) error {
	profileName := args[0]

	// Check if profile exists
	profileKey := "profiles." + profileName
	if !viper.IsSet(profileKey) {
		return fmt.Errorf("profile '%s' not found. Use 'yotei profile add %s' to create it", profileName, profileName)
	}

	// Start from the existing profile
	existingProfile := viper.GetStringMap(profileKey)
	profile := make(map[string]interface{})
	for k, v := range existingProfile {
		profile[k] = v
	}

	if !anyProfileFlagChanged(cmd) {
		fmt.Println("No changes specified. Use flags to update settings:")
		fmt.Println("  yotei profile edit", profileName, "--calendar-id=<id>")
		return nil
	}

	profile = profileFromFlags(cmd, profile)

	// Save to config
	if err := saveProfileToConfig(profileName, profile); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	fmt.Printf("✓ Profile '%s' updated\n", profileName)
	return nil
}

// profileFromFlags copies every changed flag into the profile map.
func profileFromFlags(cmd *cobra.Command, profile map[string]interface{}) map[string]interface{} {
	for flag, key := range profileFlags {
		if cmd.Flags().Changed(flag) {
			val, _ := cmd.Flags().GetString(flag)
			profile[key] = val
		}
	}
	if cmd.Flags().Changed("free-slot-min") {
		val, _ := cmd.Flags().GetInt("free-slot-min")
		profile["free_slot_min"] = val
	}
	return profile
}

func anyProfileFlagChanged(cmd *cobra.Command) bool {
	for flag := range profileFlags {
		if cmd.Flags().Changed(flag) {
			return true
		}
	}
	return cmd.Flags().Changed("free-slot-min")
}

// Config file manipulation functions

func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "yotei", "config.yaml")
}

func readConfigFile() (map[string]interface{}, error) {
	configPath := getConfigPath()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]interface{}), nil
		}
		return nil, err
	}

	var config map[string]interface{}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	if config == nil {
		config = make(map[string]interface{})
	}

	return config, nil
}

func writeConfigFile(config map[string]interface{}) error {
	configPath := getConfigPath()

	// Ensure directory exists
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}

func saveProfileToConfig(name string, profile map[string]interface{}) error {
	config, err := readConfigFile()
	if err != nil {
		return err
	}

	profiles, ok := config["profiles"].(map[string]interface{})
	if !ok {
		profiles = make(map[string]interface{})
	}

	profiles[name] = profile
	config["profiles"] = profiles

	return writeConfigFile(config)
}

func setDefaultProfileInConfig(name string) error {
	config, err := readConfigFile()
	if err != nil {
		return err
	}

	config["default_profile"] = name

	return writeConfigFile(config)
}
