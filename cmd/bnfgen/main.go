// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command bnfgen generates standalone recursive-descent parsers from
// BNF/EBNF grammar files.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	log "github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/LMikhail/bnf-parser-generator/engine"
	"github.com/LMikhail/bnf-parser-generator/generator"
)

const version = "0.2.0"

func newRootCmd() *cobra.Command {
	var (
		input      string
		output     string
		outputDir  string
		language   string
		name       string
		namespace  string
		format     string
		executable bool
		debugMode  bool
		verbose    bool
	)
	cmd := &cobra.Command{
		Use:     "bnfgen",
		Short:   "Generate standalone parsers from BNF/EBNF grammars",
		Version: version,
		Example: `  bnfgen -i json.bnf
  bnfgen --input grammar.bnf --language cpp --name MyParser
  bnfgen -i calc.bnf -o calculator --namespace calc -e --verbose`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if input == "" {
				return errors.New("--input is required")
			}
			f, err := generator.ParseFormat(format)
			if err != nil {
				return err
			}
			if verbose {
				flag.Set("logtostderr", "true")
				flag.Set("v", "1")
			}
			cfg := &engine.Config{
				Input:      input,
				OutputDir:  outputDir,
				OutputBase: output,
				Language:   language,
				Name:       name,
				Namespace:  namespace,
				Format:     f,
				Executable: executable,
				Debug:      debugMode,
			}
			report, err := engine.Run(cfg, engine.DirSink{})
			if err != nil {
				return err
			}
			for _, w := range report.Warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w.Message)
			}
			if verbose {
				fmt.Fprintf(cmd.OutOrStdout(), "start symbol: %s\n", report.Grammar.StartSymbol)
				for _, path := range report.Files {
					fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "input BNF/EBNF grammar file (required)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output parser file name (default: auto-generated)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "output directory (default: generated/<stem>)")
	cmd.Flags().StringVarP(&language, "language", "l", "cpp", "target language")
	cmd.Flags().StringVarP(&name, "name", "n", "", "parser class name (default: derived from the grammar file)")
	cmd.Flags().StringVar(&namespace, "namespace", "", "namespace/package for the generated code")
	cmd.Flags().StringVarP(&format, "format", "f", "source-only", "output format: source-only, library-static, library-shared, executable or all")
	cmd.Flags().BoolVarP(&executable, "executable", "e", false, "emit a main alongside the parser")
	cmd.Flags().BoolVarP(&debugMode, "debug", "d", false, "emit diagnostic traces in the generated parser")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	return cmd
}

func main() {
	// glog reads its verbosity from the standard flag set.
	flag.CommandLine.Parse(nil)
	defer log.Flush()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
