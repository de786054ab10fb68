package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/ppiankov/nyaya/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=..."
var Version = "0.3.0"

var (
	cfgFile    string
	verbose    bool
	outFormat  string
	baseURL    string
	reqTimeout time.Duration

	logger = zap.NewNop()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "nyaya",
	Short: "Nyaya - search Indian judgments, acts and law mappings from the terminal",
	Long: `Nyaya is a command-line client for the Nyaya legal research service.

It lists and searches High Court and Supreme Court judgments, central and
state acts, and the section mappings between the old and new criminal codes
(IPC → BNS, CrPC → BNSS, Evidence Act → BSA). Signed-in users can bookmark
any of these and download judgment PDFs.

Nyaya shows what the service returns. It does not give legal advice.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		l, err := config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute runs the root command. Interrupts cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("nyaya v%s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.nyaya/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().StringVarP(&outFormat, "output", "o", "", "output format: table, json, markdown")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "backend URL (overrides api.base_url)")
	rootCmd.PersistentFlags().DurationVar(&reqTimeout, "timeout", 2*time.Minute, "overall command timeout")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads .env, the config file and NYAYA_* environment variables
func initConfig() {
	// A missing .env is normal
	_ = godotenv.Load()

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".nyaya"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// NYAYA_API_BASE_URL, NYAYA_LLM_API_KEY, ...
	viper.SetEnvPrefix("NYAYA")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()
	bindEnvKeys(model.DefaultConfig())

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}
