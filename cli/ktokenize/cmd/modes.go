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
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var modesCmd = &cobra.Command{
	Use:   "modes",
	Short: "List the modes the server accepts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		modes, err := c.Modes(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list modes: %w", err)
		}

		w := tabwriter.NewWriter(out(cmd), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "MODE\tNAME\tVARIANT\tMAX LENGTH\tDIAGNOSTIC")
		for _, m := range modes {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%t\n", m.Mode, m.Name, m.Variant, m.MaxLength, m.Diagnostic)
		}
		return w.Flush()
	},
}

var latticeCmd = &cobra.Command{
	Use:   "lattice TEXT",
	Short: "Print the raw lattice graph of text in dot format",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		graph, err := c.Lattice(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to get lattice: %w", err)
		}
		fmt.Fprint(out(cmd), graph)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modesCmd)
	rootCmd.AddCommand(latticeCmd)
}

func writeViterbi(path, svg string) error {
	if svg == "" {
		return fmt.Errorf("response has no rendered lattice; use --mode 3 and check the server renderer")
	}
	if err := os.WriteFile(path, []byte(svg), 0o644); err != nil {
		return fmt.Errorf("failed to write lattice: %w", err)
	}
	return nil
}
