package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/testovak/testovak/internal/utils"
	"github.com/testovak/testovak/pkg/navigate"
	"github.com/testovak/testovak/pkg/polling"
	"github.com/testovak/testovak/pkg/portal"
	"github.com/testovak/testovak/pkg/storage"
)

func resolveDBPath(cmd *cobra.Command) (string, error) {
	dbPath, _ := cmd.Flags().GetString("dbpath")
	if dbPath == "" {
		dbPath = viper.GetString("dbpath")
	}
	return utils.GetAbsDBPath(dbPath)
}

// openDB opens the state database, creating its directory on first use.
func openDB(cmd *cobra.Command) (*storage.DB, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("could not resolve db path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("could not create db directory: %w", err)
	}
	return storage.Open(dbPath)
}

func newPortalClient(cmd *cobra.Command) (*portal.Client, error) {
	proxy, _ := cmd.Flags().GetString("proxy")
	return portal.New(portal.Config{
		ListingURL: viper.GetString("portal.url"),
		Cookie:     viper.GetString("portal.cookie"),
		UserAgent:  viper.GetString("portal.user_agent"),
		Timeout:    viper.GetDuration("portal.timeout"),
		Retries:    viper.GetInt("portal.retries"),
		QPS:        viper.GetFloat64("portal.qps"),
		Proxy:      proxy,
		Logger:     utils.RetryLogger{L: utils.Log},
	})
}

func requirePortalURL() error {
	if viper.GetString("portal.url") == "" {
		return errors.New("portal.url is not set. Add it to ~/.testovak.yaml or export TESTOVAK_PORTAL_URL")
	}
	return nil
}

func newNavigator(cmd *cobra.Command) navigate.Navigator {
	portalURL := viper.GetString("portal.url")
	if viper.GetBool("navigate.open_browser") {
		return navigate.NewBrowser(portalURL, cmd.OutOrStdout())
	}
	return &navigate.Printer{PortalURL: portalURL, Out: cmd.OutOrStdout()}
}

func runnerConfig(src polling.Source, db *storage.DB, nav navigate.Navigator) polling.Config {
	return polling.Config{
		Source:          src,
		Store:           db,
		Navigator:       nav,
		Interval:        viper.GetDuration("search.interval"),
		FoundDelay:      viper.GetDuration("search.found_delay"),
		CancelPoll:      viper.GetDuration("search.cancel_poll"),
		ToleranceDays:   viper.GetInt("search.tolerance_days"),
		MaxDisplayDates: viper.GetInt("search.max_display_dates"),
		ScanAllDates:    viper.GetBool("search.scan_all_dates"),
		Log:             utils.Log,
	}
}
