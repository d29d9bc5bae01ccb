package workflow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/RezaEskandarii/scribeflow/custom_errors"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	sfntypes "github.com/aws/aws-sdk-go-v2/service/sfn/types"
	"go.uber.org/zap"
)

// Engine starts workflow instances and resumes the ones parked on a continuation token.
type Engine interface {
	// Start launches one instance named name with input as its JSON input and
	// returns the instance identifier. Starting the same name twice does not
	// launch a second instance.
	Start(ctx context.Context, name string, input any) (string, error)
	// Resume signals the instance waiting on token to continue successfully with output.
	Resume(ctx context.Context, token string, output any) error
}

// ExecutionName derives a stable instance name for one upload so a
// redelivered event cannot start a second instance.
func ExecutionName(identity, eventTime, jobID string) string {
	sum := sha256.Sum256([]byte(identity + "|" + eventTime))
	return jobID + "-" + hex.EncodeToString(sum[:])[:16]
}

// SFNAPI is the part of the Step Functions client used here.
type SFNAPI interface {
	StartExecution(ctx context.Context, params *sfn.StartExecutionInput, optFns ...func(*sfn.Options)) (*sfn.StartExecutionOutput, error)
	SendTaskSuccess(ctx context.Context, params *sfn.SendTaskSuccessInput, optFns ...func(*sfn.Options)) (*sfn.SendTaskSuccessOutput, error)
}

type StepFunctions struct {
	client          SFNAPI
	stateMachineARN string
	logger          *zap.Logger
}

func NewStepFunctions(client SFNAPI, stateMachineARN string, logger *zap.Logger) *StepFunctions {
	return &StepFunctions{client: client, stateMachineARN: stateMachineARN, logger: logger}
}

func (s *StepFunctions) Start(ctx context.Context, name string, input any) (string, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("marshal workflow input: %w", err)
	}

	out, err := s.client.StartExecution(ctx, &sfn.StartExecutionInput{
		StateMachineArn: aws.String(s.stateMachineARN),
		Name:            aws.String(name),
		Input:           aws.String(string(body)),
	})
	if err != nil {
		var exists *sfntypes.ExecutionAlreadyExists
		if errors.As(err, &exists) {
			arn := s.executionARN(name)
			s.logger.Info("workflow instance already started", zap.String("execution_arn", arn))
			return arn, nil
		}
		return "", fmt.Errorf("start execution %s: %w: %w", name, custom_errors.ErrExternal, err)
	}
	return aws.ToString(out.ExecutionArn), nil
}

func (s *StepFunctions) Resume(ctx context.Context, token string, output any) error {
	body, err := json.Marshal(output)
	if err != nil {
		return fmt.Errorf("marshal workflow output: %w", err)
	}

	_, err = s.client.SendTaskSuccess(ctx, &sfn.SendTaskSuccessInput{
		TaskToken: aws.String(token),
		Output:    aws.String(string(body)),
	})
	if err == nil {
		return nil
	}

	var (
		timedOut     *sfntypes.TaskTimedOut
		doesNotExist *sfntypes.TaskDoesNotExist
		invalidToken *sfntypes.InvalidToken
		invalidOut   *sfntypes.InvalidOutput
	)
	switch {
	case errors.As(err, &timedOut), errors.As(err, &doesNotExist), errors.As(err, &invalidToken):
		return fmt.Errorf("send task success: %w: %w", custom_errors.ErrNotWaiting, err)
	case errors.As(err, &invalidOut):
		return fmt.Errorf("send task success: %w: %w", custom_errors.ErrMalformedInput, err)
	}
	return fmt.Errorf("send task success: %w: %w", custom_errors.ErrExternal, err)
}

// executionARN follows the ARN layout of executions of the configured state machine.
func (s *StepFunctions) executionARN(name string) string {
	return strings.Replace(s.stateMachineARN, ":stateMachine:", ":execution:", 1) + ":" + name
}
