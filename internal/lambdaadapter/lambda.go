package lambdaadapter

import (
	"context"

	"github.com/RezaEskandarii/scribeflow/internal/completion"
	"github.com/RezaEskandarii/scribeflow/internal/event"
	"github.com/RezaEskandarii/scribeflow/internal/identity"
	"github.com/RezaEskandarii/scribeflow/internal/intake"
	"github.com/RezaEskandarii/scribeflow/internal/query"
	"github.com/RezaEskandarii/scribeflow/types"
	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"
)

// Intake adapts the upload handler to S3 notifications delivered by Lambda.
// Returning an error makes the platform retry the whole batch.
func Intake(h *intake.Handler, logger *zap.Logger) func(context.Context, events.S3Event) ([]types.StartedJob, error) {
	return func(ctx context.Context, e events.S3Event) ([]types.StartedJob, error) {
		logger.Debug("received upload notification", zap.Int("records", len(e.Records)))
		return h.Handle(ctx, event.FromS3Event(e))
	}
}

func Completion(h *completion.Handler, logger *zap.Logger) func(context.Context, events.S3Event) (completion.Summary, error) {
	return func(ctx context.Context, e events.S3Event) (completion.Summary, error) {
		logger.Debug("received result notification", zap.Int("records", len(e.Records)))
		return h.Handle(ctx, event.FromS3Event(e))
	}
}

// Token is invoked by the workflow's wait state with its task token.
func Token(r *completion.TokenRecorder) func(context.Context, completion.WaitRequest) error {
	return r.Record
}

// Status is invoked by the workflow's task states to advance job_status.
func Status(r *completion.StatusRecorder) func(context.Context, completion.StatusRequest) error {
	return r.Record
}

// API adapts the query router to API Gateway HTTP API requests. Claims come
// from the gateway's JWT authorizer.
func API(router *query.Router) func(context.Context, events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	return func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		resp := router.Route(ctx, query.Request{
			Method: req.RequestContext.HTTP.Method,
			Path:   req.RawPath,
			Source: identity.Source{
				Params: req.QueryStringParameters,
				Claims: authorizerClaims(req),
			},
		})
		return events.APIGatewayV2HTTPResponse{
			StatusCode: resp.StatusCode,
			Body:       string(resp.JSON()),
			Headers:    map[string]string{"Content-Type": "application/json"},
		}, nil
	}
}

func authorizerClaims(req events.APIGatewayV2HTTPRequest) map[string]string {
	if req.RequestContext.Authorizer == nil || req.RequestContext.Authorizer.JWT == nil {
		return nil
	}
	return req.RequestContext.Authorizer.JWT.Claims
}
