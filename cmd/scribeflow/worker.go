package main

import (
	"context"

	"github.com/RezaEskandarii/scribeflow/internal/dispatch"
	"github.com/RezaEskandarii/scribeflow/internal/event"
	"github.com/RezaEskandarii/scribeflow/internal/message_broaker"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume upload and result notifications from RabbitMQ",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidateWorker(); err != nil {
			return err
		}
		intakeHandler, err := container.IntakeHandler()
		if err != nil {
			return err
		}
		completionHandler, err := container.CompletionHandler()
		if err != nil {
			return err
		}

		mq := cfg.RabbitMQConfig
		broker, err := message_broaker.NewRabbitMQ(mq.URL, mq.Exchange, cfg.WorkerCount, mq.UploadQueue, mq.ResultQueue)
		if err != nil {
			return err
		}
		defer broker.Close()

		worker := dispatch.NewWorker(broker, container.Parser, cfg.WorkerCount, container.Logger)
		worker.Route(mq.UploadQueue, func(ctx context.Context, evs []event.ObjectCreated) error {
			_, err := intakeHandler.Handle(ctx, evs)
			return err
		})
		worker.Route(mq.ResultQueue, func(ctx context.Context, evs []event.ObjectCreated) error {
			_, err := completionHandler.Handle(ctx, evs)
			return err
		})

		container.Logger.Info("worker started",
			zap.String("upload_queue", mq.UploadQueue),
			zap.String("result_queue", mq.ResultQueue),
			zap.Int("worker_count", cfg.WorkerCount),
		)
		return worker.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
