package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/courtroom-viz/internal/agents"
	"github.com/jonathan/courtroom-viz/internal/schemas"
)

var validateOutputCommand = &cobra.Command{
	Use:   "validate-output",
	Short: "Validate a stage output JSON file against its schema",
	RunE:  runValidateOutputCmd,
}

var (
	validateStage string
	validateIn    string
)

func init() {
	validateOutputCommand.Flags().StringVar(&validateStage, "stage", "", "Stage name, e.g. forensic_analyst")
	validateOutputCommand.Flags().StringVar(&validateIn, "in", "", "Path to the JSON file to validate")
	_ = validateOutputCommand.MarkFlagRequired("stage")
	_ = validateOutputCommand.MarkFlagRequired("in")
	rootCmd.AddCommand(validateOutputCommand)
}

func runValidateOutputCmd(cmd *cobra.Command, _ []string) error {
	if err := validateStageOutput(validateStage, validateIn); err != nil {
		var ve *schemas.ValidationError
		if errors.As(err, &ve) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Validation failed:")
			for _, fe := range ve.Errors {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  - %s: %s\n", fe.Field, fe.Message)
			}
		}
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Validation passed")
	return nil
}

// validateStageOutput checks a file against the schema of the named stage
func validateStageOutput(stage, path string) error {
	reg, err := agents.Default()
	if err != nil {
		return err
	}
	def, err := reg.Get(stage)
	if err != nil {
		return fmt.Errorf("unknown stage %q (known: %v)", stage, reg.Names())
	}
	return schemas.ValidateFile(def.Schema, path)
}
