package commands

import (
	"fmt"
	"strings"

	"fimfiction/lib/bundle"
	"fimfiction/lib/model"
	"fimfiction/lib/scrapers/fimfiction/search"

	"github.com/spf13/cobra"
)

var (
	findOrder      string
	findCategories []string
	findCharacters []string
	findRating     string
	findCompleted  bool
	findMinWords   int
	findMaxWords   int
	findPage       int
	findFull       bool
	findPrintURL   bool
)

func init() {
	findCmd.Flags().StringVar(&findOrder, "order", "", "Sort order, see `lookup order`.")
	findCmd.Flags().StringSliceVar(&findCategories, "category", nil, "Category to include, prefix with - to exclude.")
	findCmd.Flags().StringSliceVar(&findCharacters, "character", nil, "Character to include, prefix with - to exclude.")
	findCmd.Flags().StringVar(&findRating, "rating", "", "Content rating, see `lookup content_rating`.")
	findCmd.Flags().BoolVar(&findCompleted, "completed", false, "Only completed stories.")
	findCmd.Flags().IntVar(&findMinWords, "min-words", 0, "Minimum word count.")
	findCmd.Flags().IntVar(&findMaxWords, "max-words", 0, "Maximum word count.")
	findCmd.Flags().IntVar(&findPage, "page", 1, "Result page, starting at 1.")
	findCmd.Flags().BoolVar(&findFull, "full", false, "Read every field of the stories instead of only their ids.")
	findCmd.Flags().BoolVar(&findPrintURL, "url", false, "Print the search url instead of fetching it.")
	rootCmd.AddCommand(findCmd)
}

// splitSelection resolves names to enum values, names starting with "-"
// go into excluded.
func splitSelection(enumType bundle.EnumType, names []string) (included, excluded bundle.Set, err error) {
	for _, name := range names {
		target := &included
		if strings.HasPrefix(name, "-") {
			target = &excluded
			name = name[1:]
		}
		v, ok := registry.ForID(enumType, name)
		if !ok {
			return nil, nil, fmt.Errorf("unknown %s %q", enumType, name)
		}
		*target = append(*target, v)
	}
	return included, excluded, nil
}

func findParameters(term string) (*bundle.Record, error) {
	params := model.NewSearchParameters().MustSet(model.SearchName, term)

	if findOrder != "" {
		order, ok := registry.ForID(model.EnumOrder, findOrder)
		if !ok {
			return nil, fmt.Errorf("unknown order %q", findOrder)
		}
		params.MustSet(model.SearchOrder, order)
	}
	if findRating != "" {
		rating, ok := registry.ForID(model.EnumContentRating, findRating)
		if !ok {
			return nil, fmt.Errorf("unknown content rating %q", findRating)
		}
		params.MustSet(model.SearchContentRating, rating)
	}

	included, excluded, err := splitSelection(model.EnumCategory, findCategories)
	if err != nil {
		return nil, err
	}
	params.MustSet(model.SearchCategoriesIncluded, included)
	params.MustSet(model.SearchCategoriesExcluded, excluded)

	included, excluded, err = splitSelection(model.EnumCharacter, findCharacters)
	if err != nil {
		return nil, err
	}
	params.MustSet(model.SearchCharactersIncluded, included)
	params.MustSet(model.SearchCharactersExcluded, excluded)

	params.MustSet(model.SearchCompleted, findCompleted)
	if findMinWords > 0 {
		params.MustSet(model.SearchWordCountMinimum, findMinWords)
	}
	if findMaxWords > 0 {
		params.MustSet(model.SearchWordCountMaximum, findMaxWords)
	}
	return params, nil
}

var findCmd = &cobra.Command{
	Use:   "find [term]",
	Short: "Runs a category search built from flags.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		term := ""
		if len(args) == 1 {
			term = args[0]
		}
		params, err := findParameters(term)
		if err != nil {
			return err
		}

		client, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		if findPrintURL {
			u, err := client.SearchURL(params, findPage)
			if err != nil {
				return err
			}
			fmt.Println(u)
			return nil
		}

		mode := search.IDOnly
		if findFull {
			mode = search.Full
		}
		result, err := client.SearchWith(cmd.Context(), params, findPage, mode)
		if err != nil {
			return err
		}
		list := bundle.GetOr(result, model.SearchResultStories, bundle.List{})
		stories := make([]*bundle.Record, len(list))
		for i, v := range list {
			stories[i] = v.(*bundle.Record)
		}
		printStories(stories)
		return nil
	},
}
