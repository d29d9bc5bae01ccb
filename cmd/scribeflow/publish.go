package main

import (
	"fmt"
	"os"

	"github.com/RezaEskandarii/scribeflow/internal/message_broaker"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var publishQueue string

var publishCmd = &cobra.Command{
	Use:   "publish <notification.json>",
	Short: "Publish an S3-format notification file to a worker queue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.RabbitMQConfig == nil || cfg.RabbitMQConfig.URL == "" {
			return fmt.Errorf("AMQP_URL is required")
		}
		body, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		evs, err := container.Parser.Parse(body)
		if err != nil {
			return err
		}

		mq := cfg.RabbitMQConfig
		queue := mq.UploadQueue
		if publishQueue == "result" {
			queue = mq.ResultQueue
		}
		broker, err := message_broaker.NewRabbitMQ(mq.URL, mq.Exchange, 1, mq.UploadQueue, mq.ResultQueue)
		if err != nil {
			return err
		}
		defer broker.Close()

		if err := broker.Publish(cmd.Context(), queue, body); err != nil {
			return err
		}
		container.Logger.Info("notification published", zap.String("queue", queue), zap.Int("records", len(evs)))
		return nil
	},
}

func init() {
	publishCmd.Flags().StringVar(&publishQueue, "to", "upload", "Target queue: upload or result")
	rootCmd.AddCommand(publishCmd)
}
