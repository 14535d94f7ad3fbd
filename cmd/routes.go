package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/dockyard/config"
	"github.com/kilianp07/dockyard/core/routes"
)

var routesCmd = &cobra.Command{
	Use:   "routes [file]",
	Short: "Validate the route master CSV",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRoutes,
}

func init() {
	rootCmd.AddCommand(routesCmd)
}

func runRoutes(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	} else {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		path = cfg.Routes.Path
	}
	table, err := routes.Load(path)
	if err != nil {
		return err
	}
	cmd.Printf("route master %s: %d sources OK\n", path, table.Len())
	return nil
}
