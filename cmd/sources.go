package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexmaslar/riff-plugin-editorial/internal/editorial"
)

var errUnhealthy = errors.New("one or more sources unhealthy")

func newSourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "Lists the enabled review sources",
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			for _, name := range appInstance.GetService().Sources() {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// newHealthCmd creates the 'health' subcommand. It checks the named sources,
// or every enabled source, plus the storage backend.
func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health [source...]",
		Short: "Checks source and storage health",
		RunE: func(cmd *cobra.Command, args []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			service := appInstance.GetService()

			names := args
			if len(names) == 0 {
				names = service.Sources()
			}
			healthy := true
			for _, name := range names {
				status, err := service.Health(ctx, name)
				if err != nil {
					status = err.Error()
				}
				if status != editorial.HealthOK {
					healthy = false
				}
				fmt.Fprintf(out, "%s: %s\n", name, status)
			}
			if err := appInstance.Ready(ctx); err != nil {
				healthy = false
				fmt.Fprintf(out, "storage: %v\n", err)
			} else {
				fmt.Fprintf(out, "storage: %s\n", editorial.HealthOK)
			}
			if !healthy {
				return errUnhealthy
			}
			return nil
		},
	}
}
