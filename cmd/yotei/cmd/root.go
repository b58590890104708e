package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skawahara/yotei/internal/adapter/google"
	"github.com/skawahara/yotei/internal/adapter/outlook"
	"github.com/skawahara/yotei/internal/core"
	"github.com/skawahara/yotei/internal/logging"
	"github.com/skawahara/yotei/internal/nlp"
	"github.com/skawahara/yotei/internal/schedule"
)

// CalendarStore extends core.Store with identity and login. Both the
// Google and Outlook adapters implement this interface.
type CalendarStore interface {
	core.Provider
	core.Store
	Login(ctx context.Context) error
}

var (
	cfgFile  string
	profile  string
	store    CalendarStore
	location *time.Location
	logger   *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "yotei",
	Short: "日本語でカレンダーを操作するアシスタント",
	Long: `yotei — 予定 (yotei, "plans") spoken, typed, and kept.

Tell it "明日の15時から16時まで会議を追加して" and the event lands on your
calendar. Ask "今日の予定を教えて" and it reads the day back, free slots
included. Works against Google Calendar and Outlook.`,
	PersistentPreRunE: initAdapter,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags (inherited by all subcommands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/yotei/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "config profile to use (e.g., work, personal)")
	rootCmd.PersistentFlags().String("timezone", "Asia/Tokyo", "IANA timezone for interpreting dates")
	rootCmd.PersistentFlags().String("calendar-id", "", "calendar to operate on (default: the provider's primary calendar)")
	rootCmd.PersistentFlags().Int("free-slot-min", 30, "minimum free slot length in minutes")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")

	// Bind persistent flags to viper
	viper.BindPFlag("timezone", rootCmd.PersistentFlags().Lookup("timezone"))
	viper.BindPFlag("calendar_id", rootCmd.PersistentFlags().Lookup("calendar-id"))
	viper.BindPFlag("free_slot_min", rootCmd.PersistentFlags().Lookup("free-slot-min"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		configDir := filepath.Join(home, ".config", "yotei")
		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Environment variables
	viper.SetEnvPrefix("YOTEI")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("provider", "google")
	viper.SetDefault("credentials_file", "credentials.json")
	viper.SetDefault("token_file", "token.json")
	viper.SetDefault("timezone", "Asia/Tokyo")
	viper.SetDefault("free_slot_min", 30)
	viper.SetDefault("log_level", "warn")

	// Read config file if it exists
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	// Apply profile settings if specified
	applyProfile()
}

// applyProfile merges profile-specific settings over defaults
func applyProfile() {
	// Check for profile from flag or env var
	activeProfile := profile
	if activeProfile == "" {
		activeProfile = viper.GetString("default_profile")
	}
	if activeProfile == "" {
		return
	}

	// Get profile settings
	profileKey := "profiles." + activeProfile
	if !viper.IsSet(profileKey) {
		fmt.Fprintf(os.Stderr, "Warning: profile '%s' not found in config\n", activeProfile)
		return
	}

	fmt.Fprintf(os.Stderr, "Using profile: %s\n", activeProfile)

	// List of settings that can be overridden by profile
	settings := []string{
		"provider",
		"credentials_file",
		"token_file",
		"client_id",
		"tenant_id",
		"calendar_id",
		"timezone",
		"free_slot_min",
		"log_level",
	}

	// Override each setting if present in profile,
	// but only if the user hasn't explicitly set it via CLI flag.
	for _, key := range settings {
		profileSettingKey := profileKey + "." + key
		if viper.IsSet(profileSettingKey) && !isFlagExplicitlySet(key) {
			viper.Set(key, viper.Get(profileSettingKey))
		}
	}
}

func isFlagExplicitlySet(viperKey string) bool {
	flagName := strings.ReplaceAll(viperKey, "_", "-")
	f := rootCmd.PersistentFlags().Lookup(flagName)

	return f != nil && f.Changed
}

func initAdapter(cmd *cobra.Command, args []string) error {
	// Skip adapter init for commands that don't need it
	if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "profile" ||
		cmd.Parent() != nil && cmd.Parent().Name() == "profile" {
		return nil
	}

	logger = logging.New(viper.GetString("log_level"))

	var err error
	location, err = time.LoadLocation(viper.GetString("timezone"))
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", viper.GetString("timezone"), err)
	}

	provider := viper.GetString("provider")
	switch provider {
	case "google":
		return initGoogleAdapter(cmd)
	case "outlook":
		return initOutlookAdapter(cmd)
	default:
		return fmt.Errorf("unknown provider: %s (supported: google, outlook)", provider)
	}
}

func initGoogleAdapter(cmd *cobra.Command) error {
	credsFile := expandPath(viper.GetString("credentials_file"))
	tokenFile := expandPath(viper.GetString("token_file"))

	// Check if files exist
	if _, err := os.Stat(credsFile); os.IsNotExist(err) {
		return fmt.Errorf("credentials file not found: %s\n\nDownload OAuth client credentials from the Google Cloud console first", credsFile)
	}

	if _, err := os.Stat(tokenFile); os.IsNotExist(err) {
		return fmt.Errorf("token file not found: %s\n\nRun 'yotei auth' to authenticate", tokenFile)
	}

	store = google.NewGoogleAdapter(
		"google",
		"Google Calendar",
		credsFile,
		tokenFile,
		viper.GetString("calendar_id"),
		location,
	)

	if err := store.Login(cmd.Context()); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	return nil
}

func initOutlookAdapter(cmd *cobra.Command) error {
	clientID := viper.GetString("client_id")
	if clientID == "" {
		return fmt.Errorf("client_id not configured for Outlook provider\n\nAdd it to your profile config:\n  client_id: \"your-azure-app-client-id\"")
	}

	tenantID := viper.GetString("tenant_id")
	tokenFile := expandPath(viper.GetString("token_file"))

	if _, err := os.Stat(tokenFile); os.IsNotExist(err) {
		return fmt.Errorf("token file not found: %s\n\nRun 'yotei auth' to authenticate with Microsoft", tokenFile)
	}

	store = outlook.NewOutlookAdapter(
		"outlook",
		"Outlook Calendar",
		clientID,
		tenantID,
		tokenFile,
		viper.GetString("calendar_id"),
		location,
	)

	if err := store.Login(cmd.Context()); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	return nil
}

// newParser and newEngine wire the configured store into the command
// pipeline. Both assume initAdapter has run.
func newParser() *nlp.Parser {
	return nlp.NewParser(nlp.WithLocation(location))
}

func newEngine() *schedule.Engine {
	return schedule.NewEngine(
		store,
		schedule.WithLogger(logger.With(logging.Backend(store.ID()))),
		schedule.WithFreeSlotMin(time.Duration(viper.GetInt("free_slot_min"))*time.Minute),
	)
}

// expandPath expands ~ to the user's home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
