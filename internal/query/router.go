package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"github.com/RezaEskandarii/scribeflow/custom_errors"
	"github.com/RezaEskandarii/scribeflow/internal/identity"
	"github.com/RezaEskandarii/scribeflow/types"
	"go.uber.org/zap"
)

var (
	jobPattern    = regexp.MustCompile(`^/jobs/([0-9a-f]{10})$`)
	resultPattern = regexp.MustCompile(`^/jobs/([0-9a-f]{10})/result$`)
)

// Request is the transport independent form of a query.
type Request struct {
	Method string
	Path   string
	Source identity.Source
}

type Response struct {
	StatusCode int
	Body       any
}

// ErrorBody is the uniform body of every failed request.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type JobList struct {
	Jobs []types.JobSummary `json:"jobs"`
}

func (r Response) JSON() []byte {
	body, err := json.Marshal(r.Body)
	if err != nil {
		body, _ = json.Marshal(ErrorBody{Error: "internal_error", Message: "check server logs"})
	}
	return body
}

// Router maps raw paths to the service. It is the only place where errors
// become status codes.
type Router struct {
	service  *Service
	resolver identity.Resolver
	logger   *zap.Logger
}

func NewRouter(service *Service, resolver identity.Resolver, logger *zap.Logger) *Router {
	return &Router{service: service, resolver: resolver, logger: logger}
}

func (rt *Router) Route(ctx context.Context, req Request) Response {
	if req.Method != "" && req.Method != http.MethodGet {
		return Response{StatusCode: http.StatusMethodNotAllowed, Body: ErrorBody{
			Error:   "method_not_allowed",
			Message: fmt.Sprintf("method %s is not supported", req.Method),
		}}
	}

	var handle func(ctx context.Context, user string) (any, error)
	switch {
	case req.Path == "/jobs":
		handle = func(ctx context.Context, user string) (any, error) {
			jobs, err := rt.service.ListJobs(ctx, user)
			return JobList{Jobs: jobs}, err
		}
	case jobPattern.MatchString(req.Path):
		jobID := jobPattern.FindStringSubmatch(req.Path)[1]
		handle = func(ctx context.Context, user string) (any, error) {
			return rt.service.GetJob(ctx, user, jobID)
		}
	case resultPattern.MatchString(req.Path):
		jobID := resultPattern.FindStringSubmatch(req.Path)[1]
		handle = func(ctx context.Context, user string) (any, error) {
			return rt.service.GetResult(ctx, user, jobID)
		}
	default:
		return Response{StatusCode: http.StatusNotFound, Body: ErrorBody{
			Error:   "not_found",
			Message: fmt.Sprintf("no handler for rawPath=%s", req.Path),
		}}
	}

	user, err := rt.resolver.Resolve(ctx, req.Source)
	if err != nil {
		return rt.errorResponse(req, err)
	}
	rt.logger.Debug("handling query", zap.String("path", req.Path), zap.String("user", user))

	body, err := handle(ctx, user)
	if err != nil {
		return rt.errorResponse(req, err)
	}
	return Response{StatusCode: http.StatusOK, Body: body}
}

func (rt *Router) errorResponse(req Request, err error) Response {
	switch {
	case errors.Is(err, custom_errors.ErrNotFound):
		return Response{StatusCode: http.StatusNotFound, Body: ErrorBody{Error: "not_found", Message: "no item found"}}
	case errors.Is(err, custom_errors.ErrNoIdentity):
		return Response{StatusCode: http.StatusUnauthorized, Body: ErrorBody{Error: "unauthorized", Message: "no identity on request"}}
	case errors.Is(err, custom_errors.ErrMalformedInput):
		return Response{StatusCode: http.StatusBadRequest, Body: ErrorBody{Error: "bad_request", Message: "malformed request"}}
	}
	rt.logger.Error("query failed", zap.String("path", req.Path), zap.Error(err))
	return Response{StatusCode: http.StatusInternalServerError, Body: ErrorBody{Error: "internal_error", Message: "check server logs"}}
}
