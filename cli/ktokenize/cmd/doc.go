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
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

var docCmd = &cobra.Command{
	Use:   "doc",
	Short: "Generate documentation for the ktokenize CLI",
	Long: `Generate documentation for the ktokenize CLI in markdown, man or YAML format.

Examples:
  ktokenize doc --output ./docs --format markdown
  ktokenize doc --output ./docs --format man`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		outputDir, _ := cmd.Flags().GetString("output")
		format, _ := cmd.Flags().GetString("format")

		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}

		var err error
		switch format {
		case "markdown", "md":
			err = doc.GenMarkdownTree(rootCmd, outputDir)
		case "man":
			err = doc.GenManTree(rootCmd, &doc.GenManHeader{
				Title:   "KTOKENIZE",
				Section: "1",
				Source:  "Kthena tokenizer CLI",
			}, outputDir)
		case "yaml":
			err = doc.GenYamlTree(rootCmd, outputDir)
		default:
			return fmt.Errorf("unsupported format: %s. Supported formats: markdown, man, yaml", format)
		}
		if err != nil {
			return fmt.Errorf("failed to generate %s documentation: %w", format, err)
		}

		fmt.Fprintf(out(cmd), "Documentation generated successfully in %s\n", outputDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(docCmd)

	docCmd.Flags().StringP("output", "o", "./docs", "Output directory for generated documentation")
	docCmd.Flags().StringP("format", "f", "markdown", "Output format (markdown, man, yaml)")
}
