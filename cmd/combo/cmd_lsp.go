package main

import (
	"github.com/dhamidi/combo/grammarls"
	"github.com/spf13/cobra"
)

func newLSPCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server for EBNF grammars",
		RunE: func(cmd *cobra.Command, args []string) error {
			server := grammarls.NewLSPServer(version, strict)
			return server.RunStdio()
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "report LL(1) conflicts as errors")
	return cmd
}
