// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cardinalhq/featurestore/internal/features"
)

func init() {
	var asJSON bool
	featuresCmd := &cobra.Command{
		Use:   "features",
		Short: "List registered feature types",
		RunE: func(_ *cobra.Command, _ []string) error {
			return printFeatures(os.Stdout, features.DefaultRegistry().List(), asJSON)
		},
	}
	featuresCmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON instead of a table")
	rootCmd.AddCommand(featuresCmd)
}

func printFeatures(w io.Writer, defs []features.Definition, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(defs)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FEATURE TYPE\tENTITY\tDATA TYPE\tDESCRIPTION")
	for _, d := range defs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.FeatureType, d.EntityKind, d.DataType, d.Description)
	}
	return tw.Flush()
}
