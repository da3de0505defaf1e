/*
Copyright The Volcano Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/response"
)

var (
	outputFormat string
	tokenizeMode int
	encoding     string
	viterbiFile  string
)

// tokenizeCmd represents the tokenize command
var tokenizeCmd = &cobra.Command{
	Use:   "tokenize TEXT...",
	Short: "Tokenize text",
	Long: `Tokenize text with the tokenizer server.

Modes:
  0  normal
  1  search
  2  extended
  3  diagnostic (input cut to 32 characters, lattice rendered as SVG)

Use --viterbi FILE with mode 3 to save the rendered lattice.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTokenize,
}

func init() {
	rootCmd.AddCommand(tokenizeCmd)

	tokenizeCmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table|json|yaml)")
	tokenizeCmd.Flags().IntVarP(&tokenizeMode, "mode", "m", 0, "Tokenizer mode")
	tokenizeCmd.Flags().StringVarP(&encoding, "encoding", "e", "", "Send the text percent-encoded in this charset")
	tokenizeCmd.Flags().StringVar(&viterbiFile, "viterbi", "", "Write the rendered lattice of a diagnostic request to this file")
}

func runTokenize(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	text := strings.Join(args, " ")

	var resp *response.TokenizationResponse
	if encoding != "" {
		resp, err = c.TokenizeEncoded(cmd.Context(), text, encoding, tokenizeMode)
	} else {
		resp, err = c.Tokenize(cmd.Context(), text, tokenizeMode)
	}
	if err != nil {
		return fmt.Errorf("failed to tokenize: %w", err)
	}

	if viterbiFile != "" {
		if err := writeViterbi(viterbiFile, resp.Viterbi); err != nil {
			return err
		}
	}
	return printResponse(out(cmd), resp, outputFormat)
}

func printResponse(w io.Writer, resp *response.TokenizationResponse, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal to JSON: %v", err)
		}
		fmt.Fprintln(w, string(data))
		return nil
	case "yaml":
		data, err := yaml.Marshal(resp)
		if err != nil {
			return fmt.Errorf("failed to marshal to YAML: %v", err)
		}
		fmt.Fprint(w, string(data))
		return nil
	case "table", "":
		tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
		fmt.Fprintln(tw, "SURFACE\tBASE\tPOS\tREADING\tPRONUNCIATION")
		for _, tok := range resp.Tokens {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", tok.Surface, tok.Base, tok.POS, tok.Reading, tok.Pronunciation)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unsupported output format: %s. Supported formats: table, json, yaml", format)
	}
}
