package tether

import (
	"fmt"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tetherhq/tether/internal/version"
	"github.com/tetherhq/tether/pkg/config"
	"github.com/tetherhq/tether/pkg/filesystem"
	"github.com/tetherhq/tether/pkg/gitcli"
	"github.com/tetherhq/tether/pkg/logging"
	"github.com/tetherhq/tether/pkg/scaffold"
	"github.com/tetherhq/tether/pkg/update"
)

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	var (
		verbosity int
		dryRun    bool
	)

	rootCmd := &cobra.Command{
		Use:     "tether",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return fmt.Errorf(MsgErrNoCommand)
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, MsgFlagDryRun)

	rootCmd.AddCommand(newUpdateCmd(&dryRun))
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newGenConfigCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newUpdateCmd(dryRun *bool) *cobra.Command {
	return &cobra.Command{
		Use:     "update [path]",
		Short:   MsgUpdateShort,
		Long:    MsgUpdateLong,
		Example: MsgUpdateExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectRoot, err := targetPath(args)
			if err != nil {
				return err
			}

			cfg, err := config.Load(projectRoot)
			if err != nil {
				return err
			}

			orchestrator := update.NewOrchestrator(filesystem.NewOS(), cfg, gitcli.New())
			result, err := orchestrator.Run(update.Options{
				ProjectRoot: projectRoot,
				DryRun:      *dryRun,
			})
			if err != nil {
				return err
			}

			fmt.Println(renderSummary(result))
			return nil
		},
	}
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "init <template-url> [path]",
		Short:   MsgInitShort,
		Long:    MsgInitLong,
		Example: MsgInitExample,
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			templateURL := args[0]
			targetDir, err := targetPath(args[1:])
			if err != nil {
				return err
			}

			cfg, err := config.Load("")
			if err != nil {
				return err
			}

			scaffolder := scaffold.NewScaffolder(filesystem.NewOS(), cfg, gitcli.New())
			rev, err := scaffolder.Init(templateURL, targetDir)
			if err != nil {
				return err
			}

			fmt.Printf("Initialized project from %s at %s.\n", templateURL, formatBold(shortRev(rev)))
			return nil
		},
	}
}

func newGenConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gen-config [path]",
		Short: MsgGenConfigShort,
		Long:  MsgGenConfigLong,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectRoot, err := targetPath(args)
			if err != nil {
				return err
			}
			cfg, err := config.Load(projectRoot)
			if err != nil {
				return err
			}
			out, err := toml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Print(string(out))
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: MsgVersionShort,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("tether version %s\n", version.Version)
			fmt.Printf("  commit: %s\n", version.Commit)
			fmt.Printf("  built:  %s\n", version.Date)
		},
	}
}

// targetPath resolves the optional positional path argument, defaulting
// to the current directory.
func targetPath(args []string) (string, error) {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}
	return filepath.Abs(path)
}
