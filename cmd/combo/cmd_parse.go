package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dhamidi/combo/combinator"
	"github.com/dhamidi/combo/config"
	"github.com/dhamidi/combo/ebnf/parse"
	"github.com/dhamidi/combo/format"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
)

func newParseCmd() *cobra.Command {
	var configPath string
	var grammarPath string
	var start string
	var memo []string
	var lookahead bool
	var outputFormat string
	var showStats bool

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a file with a grammar and dump the syntax tree",
		Long: `Parse tokenizes a file with the token rules of the project file, parses
it with the grammar and prints the concrete syntax tree. Use - to read from
standard input.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if grammarPath != "" {
				cfg.Grammar = grammarPath
				cfg.Dir = ""
			}
			if start != "" {
				cfg.Start = start
			}
			if lookahead {
				cfg.Lookahead = true
			}
			cfg.Memoize = append(cfg.Memoize, memo...)
			if cfg.Grammar == "" || cfg.Start == "" {
				return fmt.Errorf("a grammar and a start production are required")
			}

			enc, err := format.NewEncoder(outputFormat, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			g, err := parse.LoadGrammar(cfg.GrammarPath())
			if err != nil {
				return err
			}
			tokenizer, err := cfg.Tokenizer()
			if err != nil {
				return err
			}
			p, err := parse.NewParser(g, cfg.Start, tokenizer, parse.WithMemo(cfg.Memoize...))
			if err != nil {
				return err
			}

			filename := args[0]
			input, err := readInput(cmd.InOrStdin(), filename)
			if err != nil {
				return err
			}

			var stats combinator.Stats
			opts := append(cfg.Options(),
				combinator.WithLogger(commonlog.GetLogger("combo.parse")),
				combinator.WithStats(&stats),
			)
			node, err := p.Parse(filename, input, opts...)
			if showStats {
				printStats(cmd.ErrOrStderr(), stats)
			}
			if err != nil {
				return err
			}
			return enc.Encode(node)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "combo.toml", "project file (TOML or YAML)")
	cmd.Flags().StringVarP(&grammarPath, "grammar", "g", "", "grammar file, overrides the project file")
	cmd.Flags().StringVarP(&start, "start", "s", "", "start production, overrides the project file")
	cmd.Flags().StringSliceVar(&memo, "memo", nil, "memoize these productions")
	cmd.Flags().BoolVar(&lookahead, "lookahead", false, "skip alternatives that cannot start with the next token")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "tree", fmt.Sprintf("output format %v", format.Names()))
	cmd.Flags().BoolVar(&showStats, "stats", false, "print parser statistics to stderr")

	return cmd
}

func readInput(stdin io.Reader, filename string) (string, error) {
	var data []byte
	var err error
	if filename == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(filename)
	}
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(data), nil
}

func printStats(w io.Writer, s combinator.Stats) {
	fmt.Fprintf(w, "calls:       %d\n", s.Calls)
	fmt.Fprintf(w, "backtracks:  %d\n", s.Backtracks)
	fmt.Fprintf(w, "memo hits:   %d\n", s.MemoHits)
	fmt.Fprintf(w, "memo misses: %d\n", s.MemoMisses)
	fmt.Fprintf(w, "skipped:     %d\n", s.Skipped)
}
