package main

import (
	"fmt"

	"github.com/dhamidi/combo/combinator"
	"github.com/dhamidi/combo/ebnf/parse"
	"github.com/spf13/cobra"
)

func newFirstCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "first <grammar.ebnf> [rule...]",
		Short: "Print the FIRST set of grammar rules",
		Long: `First prints, for each rule, the tokens that can begin it and whether it
can succeed without consuming input. Without rule arguments every rule is
printed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := parse.LoadGrammar(args[0])
			if err != nil {
				return err
			}
			rules, err := parse.CompileRules(g)
			if err != nil {
				return err
			}

			names := args[1:]
			if len(names) == 0 {
				names = rules.Names()
			}

			out := cmd.OutOrStdout()
			for _, name := range names {
				rule, ok := rules[name]
				if !ok {
					return fmt.Errorf("no rule named %s", name)
				}
				first := combinator.First(rule)
				fmt.Fprintf(out, "%s: %s", name, first)
				if !combinator.MakesProgress(rule) {
					fmt.Fprint(out, " (may consume nothing)")
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	return cmd
}
