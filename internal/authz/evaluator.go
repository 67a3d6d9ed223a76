// Package authz contains the authorization-decision services: grant validity
// evaluation for issued tokens and the auto-approval decision for incoming
// consent requests.
package authz

import (
	"context"
	"time"

	"github.com/dropDatabas3/authzcore/internal/domain/repository"
	"github.com/dropDatabas3/authzcore/internal/metrics"
	"github.com/dropDatabas3/authzcore/internal/observability/logger"
	"github.com/dropDatabas3/authzcore/internal/scope"
)

// Authorization describes a token's claims for a validity check.
type Authorization struct {
	Scope    scope.Set
	ClientID string
	IssuedAt time.Time // UTC
	Subject  string
}

// Evaluator decides whether a previously issued authorization is still
// honored at the moment a token is used or refreshed.
type Evaluator interface {
	// IsValid reports whether a token with the given claims is still backed
	// by qualifying grants. An error from the grant store propagates as-is
	// with a false result: inability to confirm validity is never approval.
	IsValid(ctx context.Context, requested scope.Set, clientID string, issuedAt time.Time, subject string) (bool, error)

	// IsAuthorizationValid is the structured-description overload of IsValid.
	IsAuthorizationValid(ctx context.Context, auth Authorization) (bool, error)
}

// EvaluatorDeps contains dependencies for the Evaluator.
type EvaluatorDeps struct {
	Grants repository.GrantRepository

	// Now is the current-time source; defaults to time.Now.
	Now func() time.Time
}

type evaluator struct {
	grants repository.GrantRepository
	now    func() time.Time
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(d EvaluatorDeps) Evaluator {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &evaluator{grants: d.Grants, now: now}
}

func (e *evaluator) IsValid(ctx context.Context, requested scope.Set, clientID string, issuedAt time.Time, subject string) (bool, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("authz.Evaluator.IsValid"))
	now := e.now().UTC()

	// 1. Qualifying grants: granted at or before issuance, unexpired as of now,
	// exact client and subject match. The store is authoritative.
	start := time.Now()
	grants, err := e.grants.ListActiveAsOf(ctx, clientID, subject, issuedAt, now)
	metrics.GrantLookupDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.AuthzDecisions.WithLabelValues(metrics.DecisionError).Inc()
		log.Error("grant lookup failed", logger.Err(err), logger.ClientID(clientID))
		return false, err
	}

	// 2. No qualifying record: the token predates every surviving grant.
	// A later re-grant must not resurrect tokens minted before a revocation.
	if len(grants) == 0 {
		metrics.AuthzDecisions.WithLabelValues(metrics.DecisionDeny).Inc()
		log.Debug("no qualifying grant", logger.ClientID(clientID), logger.Subject(subject), logger.IssuedAt(issuedAt))
		return false, nil
	}

	// 3. Multiple qualifying grants are additive, not alternative: scopes
	// granted incrementally across consent events union together.
	granted := scope.Empty(requested.Policy())
	for _, g := range grants {
		granted = granted.Union(scope.FromSlice(g.Scopes))
	}

	// 4. Every requested token must be covered.
	ok := requested.SubsetOf(granted)
	if ok {
		metrics.AuthzDecisions.WithLabelValues(metrics.DecisionAllow).Inc()
	} else {
		metrics.AuthzDecisions.WithLabelValues(metrics.DecisionDeny).Inc()
	}
	log.Debug("validity decision",
		logger.Decision(ok),
		logger.ClientID(clientID),
		logger.Subject(subject),
		logger.Scope(requested.String()),
		logger.Count(len(grants)))
	return ok, nil
}

func (e *evaluator) IsAuthorizationValid(ctx context.Context, auth Authorization) (bool, error) {
	return e.IsValid(ctx, auth.Scope, auth.ClientID, auth.IssuedAt, auth.Subject)
}
