package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/drosengarten/bulwark/decorators"
)

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringP("format", "f", "table", "Output format (table|json)")
	_ = viper.BindPFlag("list.format", listCmd.Flags().Lookup("format"))
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered checks and their parameters",
	RunE: func(cmd *cobra.Command, args []string) error {
		type entry struct {
			Name   string   `json:"name"`
			Op     string   `json:"op"`
			Params []string `json:"params"`
			Doc    string   `json:"doc"`
		}
		var entries []entry
		for _, name := range decorators.Names() {
			b, _ := decorators.Lookup(name)
			var params []string
			for _, p := range b.Params() {
				params = append(params, p.String())
			}
			entries = append(entries, entry{
				Name:   name,
				Op:     b.Check().Name(),
				Params: params,
				Doc:    b.Check().Doc(),
			})
		}

		out := cmd.OutOrStdout()
		if viper.GetString("list.format") == "json" {
			data, err := json.MarshalIndent(entries, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal checks: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		table := tablewriter.NewWriter(out)
		table.Header("Check", "Params", "Description")
		for _, e := range entries {
			table.Append([]string{e.Name, strings.Join(e.Params, ", "), e.Doc})
		}
		table.Render()
		return nil
	},
}
