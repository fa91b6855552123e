package main

import (
	"strings"

	"github.com/arthur-debert/docbind/formats"
	"github.com/arthur-debert/docbind/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// queryFlags holds the flags of the query command.
type queryFlags struct {
	where []string
	order []string
	limit int
	last  int
	after string
}

func (cli *CLI) newQueryCommand() *cobra.Command {
	var flags queryFlags

	cmd := &cobra.Command{
		Use:   "query <collection-path>",
		Short: "List the documents of a collection matching filters",
		Long: `List the documents of a collection.

Filters are AND-ed. Results are ordered by the --order fields, then by
document ID in the direction of the last order. Documents missing a
filtered or ordered field are left out.

Operators: ==, !=, <, <=, >, >=, array-contains, array-contains-any, in, not-in.
List operators take comma separated values.`,
		Example: `  docbind query books --where genre:==:scifi --order pages:desc
  docbind query books --where "tags:array-contains-any:desert,romance"
  docbind query books --order created --limit 2 --after dune
  docbind query books --order created --last 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := flags.build(args[0])
			if err != nil {
				return err
			}

			if flags.after != "" {
				cursor, err := cli.fetch(cmd, "query", types.NewDocRef(q.Collection, flags.after))
				if err != nil {
					return err
				}
				q.StartAfter = &cursor
			}

			snaps, err := cli.store.Query(cmd.Context(), q)
			if err != nil {
				return WrapError("query", err, CommonSuggestions.CheckFlags)
			}
			cli.logger.Debug("query executed",
				zap.String("path", q.Collection),
				zap.Int("filters", len(q.Filters)),
				zap.Int("orders", len(q.Orders)),
				zap.Int("results", len(snaps)))
			return cli.render(snaps...)
		},
	}

	cmd.Flags().StringArrayVarP(&flags.where, "where", "w", nil, "filter field:operator:value (repeatable)")
	cmd.Flags().StringArrayVarP(&flags.order, "order", "o", nil, "order field[:asc|desc] (repeatable)")
	cmd.Flags().IntVarP(&flags.limit, "limit", "l", 0, "return at most N documents from the start")
	cmd.Flags().IntVar(&flags.last, "last", 0, "return at most N documents from the end (needs --order)")
	cmd.Flags().StringVar(&flags.after, "after", "", "start after the document with this ID")
	return cmd
}

// build turns the flags into a validated store query.
func (f queryFlags) build(collection string) (types.Query, error) {
	if err := types.ValidateCollectionPath(collection); err != nil {
		return types.Query{}, NewValidationError("query", "collection path", collection, CommonSuggestions.CheckPath)
	}
	q := types.Query{Collection: collection}

	for _, clause := range f.where {
		filter, err := parseWhere(clause)
		if err != nil {
			return q, err
		}
		q.Filters = append(q.Filters, filter)
	}
	for _, clause := range f.order {
		order, err := parseOrder(clause)
		if err != nil {
			return q, err
		}
		q.Orders = append(q.Orders, order)
	}

	switch {
	case f.limit != 0 && f.last != 0:
		return q, &CLIError{
			Operation:   "query",
			Cause:       "--limit and --last cannot be combined",
			Suggestions: []string{"Use --limit to take from the start or --last to take from the end"},
		}
	case f.limit != 0:
		q.Limit = &types.Limit{N: f.limit}
	case f.last != 0:
		if f.after != "" {
			return q, &CLIError{
				Operation: "query",
				Cause:     "--after cannot page a --last query",
			}
		}
		q.Limit = &types.Limit{N: f.last, FromEnd: true}
	}

	if err := q.Validate(); err != nil {
		return q, NewStoreError("query", err, CommonSuggestions.CheckFlags)
	}
	return q, nil
}

// parseWhere parses field:operator:value. The value may itself contain
// colons. List operators split the value on commas.
func parseWhere(clause string) (types.Filter, error) {
	parts := strings.SplitN(clause, ":", 3)
	if len(parts) != 3 || parts[0] == "" {
		return types.Filter{}, NewFilterError("query", clause, "expected field:operator:value")
	}

	op := types.Operator(parts[1])
	if !op.Valid() {
		return types.Filter{}, NewFilterError("query", clause, "unknown operator "+parts[1])
	}

	filter := types.Filter{Field: parts[0], Op: op}
	if op.TakesList() {
		values := []interface{}{}
		if parts[2] != "" {
			for _, v := range strings.Split(parts[2], ",") {
				values = append(values, formats.ParseValue(v))
			}
		}
		filter.Value = values
	} else {
		filter.Value = formats.ParseValue(parts[2])
	}
	return filter, nil
}

// parseOrder parses field or field:direction.
func parseOrder(clause string) (types.Order, error) {
	field, dir, _ := strings.Cut(clause, ":")
	if field == "" {
		return types.Order{}, NewValidationError("query", "order", clause, "Use format: --order field[:asc|desc]")
	}
	direction, err := types.ParseDirection(dir)
	if err != nil {
		return types.Order{}, NewValidationError("query", "order direction", dir, "Use asc or desc")
	}
	return types.Order{Field: field, Direction: direction}, nil
}
