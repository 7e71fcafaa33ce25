package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	graph "github.com/hanpama/membergraph/internal/graph"
	validation "github.com/hanpama/membergraph/internal/validation"
)

var errInvalidDocument = errors.New("document is invalid")

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file|->",
		Short: "Check a query document against the schema and the depth bound",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var src []byte
			var err error
			if args[0] == "-" {
				src, err = io.ReadAll(cmd.InOrStdin())
			} else {
				src, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}

			sch, err := graph.Schema()
			if err != nil {
				return err
			}
			var opts []validation.Option
			if !a.cfg.GraphQL.Introspection {
				opts = append(opts, validation.WithoutIntrospection())
			}
			v, err := validation.New(sch, a.cfg.GraphQL.MaxDepth, opts...)
			if err != nil {
				return err
			}
			_, errs := v.Load(string(src))
			out := cmd.OutOrStdout()
			if len(errs) == 0 {
				_, err := fmt.Fprintln(out, "ok")
				return err
			}
			for _, e := range errs {
				fmt.Fprintf(out, "%s: %s\n", e.Extensions["code"], e.Error())
			}
			return errInvalidDocument
		},
	}
}
