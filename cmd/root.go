package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/testovak/testovak/internal/utils"
	"github.com/testovak/testovak/pkg/whttp"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "testovak",
	Short: "Watches the exam portal for a free slot and books it.",
	Long: `testovak keeps an eye on the exam scheduling portal for you.

Start a search with "testovak search start", then leave "testovak run" working:
as soon as a slot inside your dates and hours shows up, the booking page opens.`,
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.testovak.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("proxy", "", "", "HTTP Proxy (Useful for debugging. Example: http://127.0.0.1:8080)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
	rootCmd.PersistentFlags().String("dbpath", "", "Path to SQLite DB file (default: $HOME/.config/testovak/testovak.sqlite)")
}

func setDefaults() {
	viper.SetDefault("portal.url", "")
	viper.SetDefault("portal.cookie", "")
	viper.SetDefault("portal.user_agent", whttp.DefaultUserAgent)
	viper.SetDefault("portal.timeout", "30s")
	viper.SetDefault("portal.retries", 0)
	viper.SetDefault("portal.qps", 1)
	viper.SetDefault("search.interval", "10s")
	viper.SetDefault("search.found_delay", "3s")
	viper.SetDefault("search.tolerance_days", 2)
	viper.SetDefault("search.max_display_dates", 3)
	viper.SetDefault("search.scan_all_dates", false)
	viper.SetDefault("search.cancel_poll", "1s")
	viper.SetDefault("navigate.open_browser", true)
	viper.SetDefault("dbpath", "")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".testovak")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("testovak")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgFile == "" {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := filepath.Join(home, ".testovak.yaml")
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}
