package main

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/arthur-debert/docbind/formats"
	"github.com/arthur-debert/docbind/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (cli *CLI) newGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <document-path>",
		Short: "Print one document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := types.ParseDocRef(args[0])
			if err != nil {
				return NewValidationError("get document", "document path", args[0], CommonSuggestions.CheckPath)
			}
			snap, err := cli.fetch(cmd, "get document", ref)
			if err != nil {
				return err
			}
			return cli.render(snap)
		},
	}
}

// fieldInput holds the flags describing document fields.
type fieldInput struct {
	set  []string
	file string
}

func (fi *fieldInput) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&fi.set, "set", "s", nil, "field assignment key=value (repeatable)")
	cmd.Flags().StringVar(&fi.file, "file", "", `file of "key: value" lines, - for stdin`)
}

// fields reads the file first, then applies --set assignments over it.
// Values are typed: 42, 4.5, true, null, RFC 3339 times and ref(<path>).
func (fi *fieldInput) fields(stdin io.Reader) (map[string]interface{}, error) {
	fields := make(map[string]interface{})

	if fi.file != "" {
		var raw []byte
		var err error
		if fi.file == "-" {
			raw, err = io.ReadAll(stdin)
		} else {
			raw, err = os.ReadFile(fi.file)
		}
		if err != nil {
			return nil, &CLIError{
				Operation:  "read fields",
				Cause:      "cannot read fields file",
				Details:    err.Error(),
				Underlying: err,
			}
		}
		parsed, err := formats.ParseFields(string(raw))
		if err != nil {
			return nil, NewValidationError("read fields", "fields file", fi.file, err.Error())
		}
		fields = parsed
	}

	for _, assignment := range fi.set {
		key, value, ok := strings.Cut(assignment, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, NewValidationError("read fields", "assignment", assignment,
				"Use format: --set key=value")
		}
		fields[strings.TrimSpace(key)] = formats.ParseValue(value)
	}

	if len(fields) == 0 {
		return nil, &CLIError{
			Operation:   "read fields",
			Cause:       "no fields given",
			Suggestions: []string{"Use --set key=value or --file <path>"},
		}
	}
	return fields, nil
}

func (cli *CLI) newPutCommand() *cobra.Command {
	var input fieldInput
	var merge bool

	cmd := &cobra.Command{
		Use:   "put <document-path>",
		Short: "Write a document at a path",
		Long: `Write a document at a path, creating it when missing.

Without --merge the document is replaced by the given fields. With --merge
the given fields are written over the stored ones and the rest are kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := types.ParseDocRef(args[0])
			if err != nil {
				return NewValidationError("put document", "document path", args[0], CommonSuggestions.CheckPath)
			}
			fields, err := input.fields(cmd.InOrStdin())
			if err != nil {
				return WrapError("put document", err)
			}
			if err := cli.store.Set(cmd.Context(), ref, fields, merge); err != nil {
				return WrapError("put document", err, CommonSuggestions.CheckFlags)
			}
			cli.logger.Info("document written",
				zap.String("path", ref.Path),
				zap.Bool("merge", merge),
				zap.Int("fields", len(fields)))

			snap, err := cli.fetch(cmd, "put document", ref)
			if err != nil {
				return err
			}
			return cli.render(snap)
		},
	}
	input.addFlags(cmd)
	cmd.Flags().BoolVarP(&merge, "merge", "m", false, "keep stored fields not given")
	return cmd
}

func (cli *CLI) newAddCommand() *cobra.Command {
	var input fieldInput

	cmd := &cobra.Command{
		Use:   "add <collection-path>",
		Short: "Add a document with a generated ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := types.ValidateCollectionPath(args[0]); err != nil {
				return NewValidationError("add document", "collection path", args[0], CommonSuggestions.CheckPath)
			}
			fields, err := input.fields(cmd.InOrStdin())
			if err != nil {
				return WrapError("add document", err)
			}
			ref, err := cli.store.Add(cmd.Context(), args[0], fields)
			if err != nil {
				return WrapError("add document", err, CommonSuggestions.CheckFlags)
			}
			cli.logger.Info("document added", zap.String("path", ref.Path), zap.Int("fields", len(fields)))

			snap, err := cli.fetch(cmd, "add document", ref)
			if err != nil {
				return err
			}
			return cli.render(snap)
		},
	}
	input.addFlags(cmd)
	return cmd
}

// fetch reads one document, turning a missing one into a not-found CLIError.
func (cli *CLI) fetch(cmd *cobra.Command, operation string, ref types.DocRef) (types.Snapshot, error) {
	snap, err := cli.store.Get(cmd.Context(), ref)
	if errors.Is(err, types.ErrNotFound) {
		return snap, NewNotFoundError(operation, ref.Path, CommonSuggestions.CheckPath)
	}
	if err != nil {
		return snap, WrapError(operation, err, CommonSuggestions.CheckStore)
	}
	return snap, nil
}
