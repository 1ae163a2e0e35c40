package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/shono-io/edgeship/sdk"
)

var statusCmd = &cobra.Command{
	Use:       "status (payload|submission) OPERATION_ID",
	Short:     "wait for an operation started by an earlier run",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{string(sdk.PayloadOperation), string(sdk.SubmissionOperation)},
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := sdk.OperationKind(args[0])
		if !kind.Valid() {
			return fmt.Errorf("operation kind must be %q or %q", sdk.PayloadOperation, sdk.SubmissionOperation)
		}

		r, err := loadRunner()
		if err != nil {
			return err
		}
		defer r.Close()

		res, err := r.Await(cmd.Context(), kind, sdk.OperationHandle(args[1]))
		if err != nil {
			return err
		}

		log.Info().
			Str("operation", string(res.Handle)).
			Str("status", string(res.Status)).
			Int("checks", res.Checks).
			Msgf("%s operation finished.", kind.Describe())
		return nil
	},
}
