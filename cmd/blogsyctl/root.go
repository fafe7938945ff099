// AngelaMos | 2026
// root.go

package main

import (
	"github.com/spf13/cobra"

	"github.com/carterperez-dev/blogsy/internal/config"
	"github.com/carterperez-dev/blogsy/internal/core"
)

type commandContext struct {
	configPath string
	cfg        *config.Config
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.LoadUnvalidated(c.configPath)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

func (c *commandContext) openDatabase(cmd *cobra.Command) (*core.Database, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return core.NewDatabase(cmd.Context(), cfg.Database)
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "blogsyctl",
		Short:         "Blogsy operator CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configPath, "config", "c", "config.yaml", "Configuration file path")

	rootCmd.AddCommand(newMigrateCommand(ctx))
	rootCmd.AddCommand(newPlansCommand(ctx))
	rootCmd.AddCommand(newUsageCommand(ctx))

	return rootCmd
}
