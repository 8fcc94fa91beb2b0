package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/provns/provns/pkg/provns"
	"github.com/provns/provns/pkg/provns/core"
)

// contextFromFlags builds an operation context carrying the persistent
// policy flags.
func contextFromFlags(cmd *cobra.Command, eng *provns.Engine) *core.OpContext {
	ctx := eng.NewContext()
	ctx.Force, _ = cmd.Flags().GetBool("force")
	ctx.Literal, _ = cmd.Flags().GetBool("literal")
	ctx.Filters.Include, _ = cmd.Flags().GetStringSlice("include")
	ctx.Filters.Exclude, _ = cmd.Flags().GetStringSlice("exclude")
	return ctx
}

// report prints the drained result records as JSON lines, prints every
// recorded error to stderr, and returns the first recorded error so
// a partially failed batch still shows its successes but exits
// non-zero.
func report(ctx *core.OpContext) error {
	enc := json.NewEncoder(os.Stdout)
	for _, r := range ctx.Drain() {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	errs := ctx.Errors()
	for _, e := range errs {
		fmt.Fprintf(os.Stderr, "provns: %v\n", e)
	}
	if first := ctx.FirstError(); first != nil {
		return fmt.Errorf("%d of the requested paths failed (first: %w)", len(errs), first)
	}
	return nil
}

func newGetCommand() *cobra.Command {
	var names []string

	cmd := &cobra.Command{
		Use:   "get <path>...",
		Short: "Read item properties",
		Long:  "Read properties of every item the given paths expand to.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := newEngine(cmd)
			if err != nil {
				return err
			}
			ctx := contextFromFlags(cmd, eng)
			if err := eng.GetPropertyCtx(ctx, args, names); err != nil {
				return err
			}
			return report(ctx)
		},
	}
	cmd.Flags().StringSliceVarP(&names, "name", "n", nil, "property names to read (default: all)")
	return cmd
}

func newSetCommand() *cobra.Command {
	var (
		names  []string
		values []string
	)

	cmd := &cobra.Command{
		Use:   "set <path>...",
		Short: "Write item properties",
		Long:  "Write property values on every item the given paths expand to.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(names) == 0 || len(names) != len(values) {
				return fmt.Errorf("--name and --value must be given the same number of times")
			}
			props := make(map[string]interface{}, len(names))
			for i, n := range names {
				props[n] = values[i]
			}

			eng, err := newEngine(cmd)
			if err != nil {
				return err
			}
			ctx := contextFromFlags(cmd, eng)
			if err := eng.SetPropertyCtx(ctx, args, props); err != nil {
				return err
			}
			return report(ctx)
		},
	}
	cmd.Flags().StringSliceVarP(&names, "name", "n", nil, "property name to set")
	cmd.Flags().StringSliceVarP(&values, "value", "v", nil, "property value, paired with --name by position")
	return cmd
}

func newClearCommand() *cobra.Command {
	var names []string

	cmd := &cobra.Command{
		Use:   "clear <path>...",
		Short: "Clear item properties",
		Long:  "Reset the named properties on every item the given paths expand to.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := newEngine(cmd)
			if err != nil {
				return err
			}
			ctx := contextFromFlags(cmd, eng)
			if err := eng.ClearPropertyCtx(ctx, args, names); err != nil {
				return err
			}
			return report(ctx)
		},
	}
	cmd.Flags().StringSliceVarP(&names, "name", "n", nil, "property names to clear (default: all)")
	return cmd
}

func newNewCommand() *cobra.Command {
	var (
		name         string
		propertyType string
		value        string
	)

	cmd := &cobra.Command{
		Use:   "new <path>...",
		Short: "Create an item property",
		Long:  "Create a property on every item the given paths expand to.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := newEngine(cmd)
			if err != nil {
				return err
			}
			ctx := contextFromFlags(cmd, eng)
			if err := eng.NewPropertyCtx(ctx, args, name, propertyType, value); err != nil {
				return err
			}
			return report(ctx)
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "property name (required)")
	cmd.Flags().StringVarP(&propertyType, "type", "t", "", "property type hint")
	cmd.Flags().StringVarP(&value, "value", "v", "", "initial property value")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newRemoveCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "remove <path>...",
		Short: "Remove an item property",
		Long:  "Remove a property from every item the given paths expand to.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := newEngine(cmd)
			if err != nil {
				return err
			}
			ctx := contextFromFlags(cmd, eng)
			if err := eng.RemovePropertyCtx(ctx, args, name); err != nil {
				return err
			}
			return report(ctx)
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "property name (required)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newRenameCommand() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "rename <path>",
		Short: "Rename an item property",
		Long:  "Rename a property on every item the given path expands to.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := newEngine(cmd)
			if err != nil {
				return err
			}
			ctx := contextFromFlags(cmd, eng)
			if err := eng.RenamePropertyCtx(ctx, args[0], from, to); err != nil {
				return err
			}
			return report(ctx)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "current property name (required)")
	cmd.Flags().StringVar(&to, "to", "", "new property name (required)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newCopyCommand() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "copy <source-path> <destination-path>",
		Short: "Copy a property between items",
		Long: `Copy a property from every item the source path expands to onto the
destination item. The destination path is taken literally.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if to == "" {
				to = from
			}
			eng, err := newEngine(cmd)
			if err != nil {
				return err
			}
			ctx := contextFromFlags(cmd, eng)
			if err := eng.CopyPropertyCtx(ctx, args[0], from, args[1], to); err != nil {
				return err
			}
			return report(ctx)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "source property name (required)")
	cmd.Flags().StringVar(&to, "to", "", "destination property name (default: same as --from)")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

func newMoveCommand() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "move <source-path> <destination-path>",
		Short: "Move a property between items",
		Long: `Move a property from every item the source path expands to onto the
destination item. The destination may be a pattern but must match at
most one item.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if to == "" {
				to = from
			}
			eng, err := newEngine(cmd)
			if err != nil {
				return err
			}
			ctx := contextFromFlags(cmd, eng)
			if err := eng.MovePropertyCtx(ctx, args[0], from, args[1], to); err != nil {
				return err
			}
			return report(ctx)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "source property name (required)")
	cmd.Flags().StringVar(&to, "to", "", "destination property name (default: same as --from)")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}
