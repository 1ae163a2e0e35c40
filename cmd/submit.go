package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "upload the packaged extension and submit it for review",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := loadRunner()
		if err != nil {
			return err
		}
		defer r.Close()

		run, err := r.Submit(cmd.Context())
		if err != nil {
			return err
		}

		log.Info().
			Str("payload_operation", string(run.PayloadOperation)).
			Str("submission_operation", string(run.SubmissionOperation)).
			Msg("Submission complete.")
		return nil
	},
}

func init() {
	submitCmd.Flags().String("artifact", "", "path of the packaged extension archive")
	submitCmd.Flags().String("notes", "", "path of the reviewer notes file")
	cobra.CheckErr(viper.BindPFlag("artifact.path", submitCmd.Flags().Lookup("artifact")))
	cobra.CheckErr(viper.BindPFlag("artifact.notes", submitCmd.Flags().Lookup("notes")))
}
