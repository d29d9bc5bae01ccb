package main

import (
	"github.com/RezaEskandarii/scribeflow/internal/lambdaadapter"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"
)

var lambdaCmd = &cobra.Command{
	Use:   "lambda",
	Short: "Run one handler inside the Lambda runtime",
}

var lambdaIntakeCmd = &cobra.Command{
	Use:   "intake",
	Short: "Handle upload notifications and start one workflow per media file",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := container.IntakeHandler()
		if err != nil {
			return err
		}
		lambda.StartWithOptions(lambdaadapter.Intake(h, container.Logger), lambda.WithContext(cmd.Context()))
		return nil
	},
}

var lambdaCompleteCmd = &cobra.Command{
	Use:   "complete",
	Short: "Handle result notifications and resume the waiting workflows",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := container.CompletionHandler()
		if err != nil {
			return err
		}
		lambda.StartWithOptions(lambdaadapter.Completion(h, container.Logger), lambda.WithContext(cmd.Context()))
		return nil
	},
}

var lambdaTokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Store the continuation token handed over by the workflow's wait state",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := container.TokenRecorder()
		if err != nil {
			return err
		}
		lambda.StartWithOptions(lambdaadapter.Token(r), lambda.WithContext(cmd.Context()))
		return nil
	},
}

var lambdaStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Record IN_PROGRESS, COMPLETE or FAILED for a job as the workflow advances",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := container.StatusRecorder()
		if err != nil {
			return err
		}
		lambda.StartWithOptions(lambdaadapter.Status(r), lambda.WithContext(cmd.Context()))
		return nil
	},
}

var lambdaAPICmd = &cobra.Command{
	Use:   "api",
	Short: "Serve the job query API behind API Gateway",
	RunE: func(cmd *cobra.Command, args []string) error {
		router, err := container.QueryRouter()
		if err != nil {
			return err
		}
		lambda.StartWithOptions(lambdaadapter.API(router), lambda.WithContext(cmd.Context()))
		return nil
	},
}

func init() {
	lambdaCmd.AddCommand(lambdaIntakeCmd, lambdaCompleteCmd, lambdaTokenCmd, lambdaStatusCmd, lambdaAPICmd)
	rootCmd.AddCommand(lambdaCmd)
}
