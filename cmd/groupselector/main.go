// Command groupselector serves the GNPS FBMN group selector dashboard.
package main

import (
	"fmt"
	"os"

	"github.com/gnps/groupselector/pkg/buildtime"
	kcf "github.com/gnps/groupselector/pkg/configs/frontend"
	"github.com/gnps/groupselector/pkg/dashboard"
	"github.com/gnps/groupselector/pkg/gnps"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// globals are flags and resources shared by subcommands.
type globals struct {
	verbose    bool
	configPath string
	apiRoot    string

	logger *zap.Logger
}

// config loads the configuration file, then applies flags overriding it.
func (g *globals) config() (kcf.Config, error) {
	conf, err := kcf.Load(g.configPath)
	if err != nil {
		return kcf.Config{}, fmt.Errorf("can not read configuration: %w", err)
	}
	if g.apiRoot != "" {
		conf.GNPS.ApiRoot = g.apiRoot
		if err := conf.Verify(); err != nil {
			return kcf.Config{}, err
		}
	}
	return conf, nil
}

func newRootCommand() *cobra.Command {
	g := &globals{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:           "groupselector",
		Short:         "GNPS FBMN group selector",
		Version:       buildtime.VersionString(dashboard.Version),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewProductionConfig()
			if g.verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err := config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			g.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = g.logger.Sync()
		},
	}

	flags := root.PersistentFlags()
	flags.BoolVarP(&g.verbose, "verbose", "v", false, "enable debug logging")
	flags.StringVar(&g.configPath, "config", "", "path to the configuration file (yaml)")
	flags.StringVar(
		&g.apiRoot, "gnps-api-root", "",
		"root URL of GNPS. overrides gnps.api_root of the configuration (default "+gnps.DefaultApiRoot+")",
	)

	root.AddCommand(newServeCommand(g), newLinkCommand(g))
	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
