package main

import (
	"github.com/arthur-debert/docbind/search"
	"github.com/arthur-debert/docbind/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (cli *CLI) newSearchCommand() *cobra.Command {
	var flags queryFlags
	var options search.Options

	cmd := &cobra.Command{
		Use:   "search <collection-path> <text>",
		Short: "Rank the documents of a collection by text match",
		Long: `Search the text fields of a collection's documents.

String fields and the string elements of lists are searched. Results are
ranked by score: an exact field match scores 1.0, a match at the start of
a field ranks above one in the middle. --where narrows the documents first.`,
		Example: `  docbind search books dune --field title
  docbind search books politics --where genre:==:scifi --highlight`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := flags.build(args[0])
			if err != nil {
				return err
			}
			options.Query = args[1]

			results, err := search.SearchStore(cmd.Context(), cli.store, q, options)
			if err != nil {
				return WrapError("search", err, CommonSuggestions.CheckFlags)
			}
			cli.logger.Debug("search executed",
				zap.String("path", q.Collection),
				zap.String("query", options.Query),
				zap.Int("results", len(results)))

			snaps := make([]types.Snapshot, len(results))
			for i, r := range results {
				snaps[i] = r.Snapshot
				if len(r.Highlights) == 0 {
					continue
				}
				data := make(map[string]interface{}, len(r.Snapshot.Data))
				for k, v := range r.Snapshot.Data {
					data[k] = v
				}
				for field, text := range r.Highlights {
					data[field] = text
				}
				snaps[i].Data = data
			}
			return cli.render(snaps...)
		},
	}

	cmd.Flags().StringArrayVarP(&flags.where, "where", "w", nil, "filter field:operator:value (repeatable)")
	cmd.Flags().StringArrayVar(&options.Fields, "field", nil, "field to search (repeatable, default all)")
	cmd.Flags().BoolVar(&options.CaseSensitive, "case-sensitive", false, "match case")
	cmd.Flags().BoolVar(&options.ExactMatch, "exact", false, "require the whole field to match")
	cmd.Flags().BoolVar(&options.Highlight, "highlight", false, "mark matches with ** in the output")
	cmd.Flags().IntVar(&options.MaxResults, "max", 0, "return at most N results")
	return cmd
}
