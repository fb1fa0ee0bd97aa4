package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dhamidi/combo/ebnf/parse"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
)

var errGrammar = errors.New("grammar has errors")

func newCheckCmd() *cobra.Command {
	var opts parse.CheckOptions
	var watch bool

	cmd := &cobra.Command{
		Use:   "check <grammar.ebnf>",
		Short: "Parse, compile and analyze an EBNF grammar",
		Long: `Check reports syntax errors, undefined productions, left recursion,
repetitions that cannot terminate and LL(1) conflicts.

Productions whose name starts with an upper-case letter are rules; all other
names are token types produced by the tokenizer.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := args[0]
			if opts.Verify && opts.Start == "" {
				return fmt.Errorf("--verify needs --start")
			}

			err := checkFile(cmd.OutOrStdout(), filename, opts)
			if !watch {
				return err
			}
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
			}
			return watchFile(cmd.Context(), filename, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "--- %s changed\n", filename)
				if err := checkFile(cmd.OutOrStdout(), filename, opts); err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), err)
				}
			})
		},
	}

	cmd.Flags().StringVar(&opts.Start, "start", "", "start production for verification")
	cmd.Flags().BoolVar(&opts.Verify, "verify", false, "also run ebnf.Verify from the start production")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "treat LL(1) conflicts as errors")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "check again whenever the file changes")

	return cmd
}

func checkFile(w io.Writer, filename string, opts parse.CheckOptions) error {
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	diags := parse.Check(filename, f, opts)
	for _, d := range diags {
		fmt.Fprintln(w, d)
	}
	if parse.HasErrors(diags) {
		return errGrammar
	}
	return nil
}

// watchFile calls onChange whenever filename is written until ctx is done.
// The directory is watched because editors often replace files on save.
func watchFile(ctx context.Context, filename string, onChange func()) error {
	log := commonlog.GetLogger("combo.watch")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(filename)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch directory: %w", err)
	}
	log.Infof("watching %s", abs)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				onChange()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Errorf("watcher error: %v", err)
		}
	}
}
