package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/PapyGame/PapyrusWebBackend-sub011/internal/cli"
	"github.com/PapyGame/PapyrusWebBackend-sub011/internal/compiler"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the diagram of a model",
	Long:  `Loads a YAML model, renders the diagram of the selected kind on it and prints it as a Mermaid flowchart (graph TD) or as JSON.`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		logger, err := loggerFor(cmd)
		if err != nil {
			return err
		}
		modelPath, _ := cmd.Flags().GetString("model")
		format, _ := cmd.Flags().GetString("format")

		engine, closeStore, err := cli.CreateEngine(engineOptions(cmd), logger)
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, closeStore()) }()

		m, err := compiler.NewParser().ParseModelFile(engine.Kind().Metamodel, modelPath)
		if err != nil {
			return err
		}
		return cli.RenderModel(cmd.Context(), engine, m, format, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().String("model", "", "YAML model to render")
	renderCmd.Flags().String("format", cli.FormatMermaid, "Output format: mermaid or json")
	_ = renderCmd.MarkFlagRequired("model")
}
