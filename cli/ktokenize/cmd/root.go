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
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/volcano-sh/kthena-tokenizer/pkg/client"
)

var (
	serverAddress  string
	requestTimeout time.Duration
	retryMax       int
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ktokenize",
	Short: "Command line client for the tokenizer server",
	Long: `ktokenize sends Japanese text to a tokenizer server and prints the
morphological breakdown.

Examples:
  ktokenize tokenize すもももももももものうち
  ktokenize tokenize --mode 1 関西国際空港 -o json
  ktokenize tokenize --encoding shift_jis 東京 -o yaml
  ktokenize modes
  ktokenize lattice 東京 > lattice.dot`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// GetRootCmd exports the root command for external tools (e.g., doc generation)
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverAddress, "server", "s", envOr("TOKENIZER_SERVER", "http://localhost:8080"), "Tokenizer server address")
	rootCmd.PersistentFlags().DurationVar(&requestTimeout, "timeout", 30*time.Second, "Timeout of a single HTTP request")
	rootCmd.PersistentFlags().IntVar(&retryMax, "retries", 3, "Retries for unavailable servers")
}

func newClient() (*client.Client, error) {
	return client.New(serverAddress, client.WithTimeout(requestTimeout), client.WithRetryMax(retryMax))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
