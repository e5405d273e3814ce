// Command splist reads and edits SharePoint lists through the Lists web
// services.
//
// Configuration comes from flags, SPLIST_* environment variables and an
// optional config file, in that order of precedence:
//
//	export SPLIST_SITE_URL=https://sp.example.com/sites/team
//	export SPLIST_USERNAME=alice SPLIST_PASSWORD=secret
//	splist items Tasks Eq:Status:Open --field Title --field "Due Date"
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/smnsjas/go-splists/lists"
	"github.com/smnsjas/go-splists/transport"
)

var (
	verbose bool

	cfg    Config
	logger *zap.Logger
	tr     *transport.HTTP
)

var rootCmd = &cobra.Command{
	Use:   "splist",
	Short: "SharePoint list client",
	Long: `splist talks to the Lists, Views and SiteData web services of a
SharePoint site. Field names are display names unless noted otherwise.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig(viper.New(), cmd.Flags())
		if err != nil {
			return err
		}
		logger, err = newLogger(cfg, verbose)
		if err != nil {
			return err
		}
		if cfg.SiteURL == "" {
			return fmt.Errorf("site URL is required (--site-url or %s_SITE_URL)", envPrefix)
		}
		tr = cfg.transport(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if tr != nil {
			_ = tr.Close()
		}
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	addConfigFlags(rootCmd.PersistentFlags())
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(
		fieldsCmd,
		viewsCmd,
		itemsCmd,
		updateCmd,
		syncCmd,
		attachmentsCmd,
		versionsCmd,
		usersCmd,
		listsCmd,
		addListCmd,
		deleteListCmd,
	)
}

func site() *lists.Site {
	return lists.NewSite(tr, cfg.SiteURL, cfg.listOptions(logger)...)
}

func openList(ctx context.Context, name string, opts ...lists.Option) (*lists.List, error) {
	return site().List(ctx, name, opts...)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
