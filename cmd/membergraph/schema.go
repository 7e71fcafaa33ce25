package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	graph "github.com/hanpama/membergraph/internal/graph"
	schema "github.com/hanpama/membergraph/internal/schema"
)

func newSchemaCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the GraphQL schema as SDL",
		Args:  cobra.NoArgs,
		// The schema is compiled in; no configuration is needed.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			sch, err := graph.Schema()
			if err != nil {
				return err
			}
			sdl := schema.Render(sch)
			if out == "" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), sdl)
				return err
			}
			return os.WriteFile(out, []byte(sdl), 0o644)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the SDL to a file instead of stdout")
	return cmd
}
