package commands

import (
	"fmt"
	"strings"

	"fimfiction/lib/bundle"
	"fimfiction/lib/model"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var enumTypes = []bundle.EnumType{
	model.EnumCategory,
	model.EnumContentRating,
	model.EnumRating,
	model.EnumStoryStatus,
	model.EnumOrder,
	model.EnumFavoriteState,
	model.EnumCharacter,
}

func init() {
	rootCmd.AddCommand(lookupCmd)
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <type> [query]",
	Short: "Lists the values of an enum type, or the one closest to query.",
	Long: fmt.Sprintf(
		"Lists the values of an enum type, or the one closest to query.\nTypes: %s",
		strings.Join(enumTypeNames(), ", "),
	),
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		enumType := bundle.EnumType(args[0])
		values := registry.Values(enumType)
		if len(values) == 0 {
			return fmt.Errorf("unknown type %q, expected one of %s", args[0], strings.Join(enumTypeNames(), ", "))
		}

		t := newTable()
		if len(args) == 1 {
			t.AppendHeader(table.Row{"ID", "Name"})
			for _, v := range values {
				t.AppendRow(table.Row{v.ID(), displayName(v)})
			}
			t.Render()
			return nil
		}

		if v, ok := registry.ForID(enumType, args[1]); ok {
			t.AppendHeader(table.Row{"ID", "Name", "Match"})
			t.AppendRow(table.Row{v.ID(), displayName(v), "exact"})
			t.Render()
			return nil
		}
		if matches := registry.Matching(enumType, args[1]); len(matches) > 0 {
			t.AppendHeader(table.Row{"ID", "Name", "Match"})
			for _, v := range matches {
				t.AppendRow(table.Row{v.ID(), displayName(v), "contains"})
			}
			t.Render()
			return nil
		}
		v, score := registry.Suggest(enumType, args[1])
		t.AppendHeader(table.Row{"ID", "Name", "Similarity"})
		t.AppendRow(table.Row{v.ID(), displayName(v), fmt.Sprintf("%.2f", score)})
		t.Render()
		return nil
	},
}

func enumTypeNames() []string {
	names := make([]string, len(enumTypes))
	for i, t := range enumTypes {
		names[i] = string(t)
	}
	return names
}

func displayName(v bundle.Identifiable) string {
	named, ok := v.(interface{ Name() string })
	if !ok {
		return ""
	}
	return named.Name()
}
