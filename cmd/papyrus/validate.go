package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PapyGame/PapyrusWebBackend-sub011/internal/cli"
	"github.com/PapyGame/PapyrusWebBackend-sub011/internal/compiler"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/description"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/validator"
)

var validateCmd = &cobra.Command{
	Use:   "validate [description.yaml...]",
	Short: "Check diagram descriptions for consistency",
	Long: `Validates the description of the selected kind, or the given YAML descriptions,
against the kind's rules: tool coverage, shared group shape and reuse, and references
between descriptions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := loggerFor(cmd)
		if err != nil {
			return err
		}
		opts := engineOptions(cmd)
		kind, err := cli.ResolveKind(opts.Kind, opts.DescriptionPath)
		if err != nil {
			return err
		}

		descs := []*description.Description{kind.Description}
		if len(args) > 0 {
			descs = descs[:0]
			parser := compiler.NewParser()
			for _, path := range args {
				d, err := parser.ParseDescriptionFile(path)
				if err != nil {
					return err
				}
				descs = append(descs, d)
			}
		}

		results, verr := kind.Validator(validator.WithLogger(logger)).ValidateAll(cmd.Context(), descs)
		errs := 0
		for _, d := range descs {
			if statuses, ok := results[d.ID]; ok {
				errs += cli.PrintReport(cmd.OutOrStdout(), d.ID, statuses)
			}
		}
		if errs > 0 {
			return fmt.Errorf("validation failed with %d errors", errs)
		}
		if verr != nil {
			return verr
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
