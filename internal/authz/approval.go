package authz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/authzcore/internal/domain/repository"
	"github.com/dropDatabas3/authzcore/internal/metrics"
	"github.com/dropDatabas3/authzcore/internal/observability/logger"
	"github.com/dropDatabas3/authzcore/internal/scope"
)

// ResponseMode is the OAuth2 response shape of an authorization request.
type ResponseMode string

const (
	// ResponseModeCode is the authorization-code grant. The client receives
	// an access token without presenting its secret at this step.
	ResponseModeCode ResponseMode = "code"

	// ResponseModeToken is the implicit token grant.
	ResponseModeToken ResponseMode = "token"
)

// Errors for the auto-approval decision.
var (
	// ErrNilRequest indicates the approval request was absent. Caller's bug.
	ErrNilRequest = fmt.Errorf("approval request required: %w", repository.ErrInvalidInput)

	// ErrNoSubject indicates no authenticated subject was available.
	ErrNoSubject = errors.New("no authenticated subject")
)

// ApprovalRequest describes an incoming end-user authorization request.
type ApprovalRequest struct {
	ResponseMode ResponseMode
	ClientID     string
	Scope        scope.Set

	// Subject is the currently authenticated user. When empty, the ambient
	// SubjectSource collaborator supplies it.
	Subject string
}

// SubjectSource supplies the currently authenticated user's identity.
// The core performs no authentication itself.
type SubjectSource interface {
	CurrentSubject(ctx context.Context) (string, error)
}

// Approver decides whether a fresh authorization request may skip
// interactive consent. Stateless per call.
type Approver interface {
	CanAutoApprove(ctx context.Context, req *ApprovalRequest) (bool, error)
}

// ApproverDeps contains dependencies for the Approver.
type ApproverDeps struct {
	Clients   repository.ClientRepository
	Evaluator Evaluator

	// Subjects is optional; only consulted when the request carries no subject.
	Subjects SubjectSource

	// Now is the current-time source; defaults to time.Now via the Evaluator.
	Now func() time.Time
}

type approver struct {
	clients  repository.ClientRepository
	eval     Evaluator
	subjects SubjectSource
	now      func() time.Time
}

// NewApprover creates an Approver.
func NewApprover(d ApproverDeps) Approver {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &approver{clients: d.Clients, eval: d.Evaluator, subjects: d.Subjects, now: now}
}

func (a *approver) CanAutoApprove(ctx context.Context, req *ApprovalRequest) (bool, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("authz.Approver.CanAutoApprove"))

	// 1. Absent request is an input-validation error, not a deny.
	if req == nil {
		metrics.AutoApproveDecisions.WithLabelValues(metrics.DecisionError).Inc()
		return false, ErrNilRequest
	}

	// Only the code grant is eligible. Anything else is never auto-approved.
	if req.ResponseMode != ResponseModeCode {
		metrics.AutoApproveDecisions.WithLabelValues(metrics.DecisionDeny).Inc()
		log.Debug("response mode not eligible", logger.String("response_mode", string(req.ResponseMode)))
		return false, nil
	}

	// 2. Anti-spoofing gate: in the code flow the client gets a token without
	// presenting a secret here, so a client that cannot prove its identity
	// must never be silently granted access on a user's behalf.
	client, err := a.clients.Get(ctx, req.ClientID)
	if err != nil {
		metrics.AutoApproveDecisions.WithLabelValues(metrics.DecisionError).Inc()
		log.Debug("client lookup failed", logger.Err(err), logger.ClientID(req.ClientID))
		return false, err
	}
	if !client.HasSecret() {
		metrics.AutoApproveDecisions.WithLabelValues(metrics.DecisionDeny).Inc()
		log.Info("auto-approve refused for public client", logger.ClientID(req.ClientID))
		return false, nil
	}

	subject := req.Subject
	if subject == "" && a.subjects != nil {
		subject, err = a.subjects.CurrentSubject(ctx)
		if err != nil {
			metrics.AutoApproveDecisions.WithLabelValues(metrics.DecisionError).Inc()
			return false, err
		}
	}
	if subject == "" {
		metrics.AutoApproveDecisions.WithLabelValues(metrics.DecisionError).Inc()
		return false, ErrNoSubject
	}

	// 3. A standing grant must already cover the requested scope as of now.
	ok, err := a.eval.IsValid(ctx, req.Scope, req.ClientID, a.now().UTC(), subject)
	if err != nil {
		metrics.AutoApproveDecisions.WithLabelValues(metrics.DecisionError).Inc()
		return false, err
	}
	if ok {
		metrics.AutoApproveDecisions.WithLabelValues(metrics.DecisionAllow).Inc()
	} else {
		metrics.AutoApproveDecisions.WithLabelValues(metrics.DecisionDeny).Inc()
	}
	log.Info("auto-approve decision",
		logger.Decision(ok),
		logger.ClientID(req.ClientID),
		logger.Subject(subject),
		logger.Scope(req.Scope.String()))
	return ok, nil
}
