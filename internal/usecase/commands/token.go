package commands

import (
	"context"
	"encoding/json"

	"opshub/internal/domain/token"
	"opshub/internal/infra"
	"opshub/internal/pkg/clock"
	"opshub/internal/pkg/config"
	"opshub/internal/pkg/errs"
	"opshub/internal/pkg/random"
	"opshub/internal/usecase/shared"

	"github.com/google/uuid"
)

// RescheduleApplier performs the reschedule a redeemed token authorizes.
// It runs after the token is consumed; a failure triggers compensation.
type RescheduleApplier interface {
	Reschedule(ctx context.Context, orgID, appointmentID uuid.UUID, action json.RawMessage) error
}

type RedeemResult struct {
	Token *token.AccessToken
}

type ViewResult struct {
	Token          *token.AccessToken
	RemainingViews *int32
}

type TokenCommands interface {
	IssueReschedule(ctx context.Context, orgID, appointmentID uuid.UUID) (*token.AccessToken, error)
	IssueShare(ctx context.Context, orgID uuid.UUID, resourceType string, resourceID uuid.UUID) (*token.AccessToken, error)
	// Redeem consumes a single-use token and applies its effect.
	Redeem(ctx context.Context, opaque string, action json.RawMessage) (*RedeemResult, error)
	// View serves a token link without consuming it; share tokens burn one
	// view per call.
	View(ctx context.Context, opaque string) (*ViewResult, error)
}

type tokenUseCaseImpl struct {
	uow     shared.UnitOfWork
	applier RescheduleApplier
	clock   clock.Clock
	cfg     config.TokenConfig
}

func NewTokenUseCase(uow shared.UnitOfWork, applier RescheduleApplier, clk clock.Clock, cfg config.TokenConfig) TokenCommands {
	return &tokenUseCaseImpl{
		uow:     uow,
		applier: applier,
		clock:   clk,
		cfg:     cfg,
	}
}

func (u *tokenUseCaseImpl) IssueReschedule(ctx context.Context, orgID, appointmentID uuid.UUID) (*token.AccessToken, error) {
	opaque, err := random.Token()
	if err != nil {
		return nil, errs.Wrap(err, "failed to generate token")
	}

	now := u.clock.Now()
	t := token.NewSingleUse(token.KindReschedule, orgID, "appointment", appointmentID, opaque, now.Add(u.cfg.RescheduleTTL), now)
	if err := u.uow.Repos().Tokens().Insert(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (u *tokenUseCaseImpl) IssueShare(ctx context.Context, orgID uuid.UUID, resourceType string, resourceID uuid.UUID) (*token.AccessToken, error) {
	opaque, err := random.Token()
	if err != nil {
		return nil, errs.Wrap(err, "failed to generate token")
	}

	now := u.clock.Now()
	t, err := token.NewBoundedView(token.KindShare, orgID, resourceType, resourceID, opaque, u.cfg.ShareMaxViews, now.Add(u.cfg.ShareTTL), now)
	if err != nil {
		return nil, errs.Wrap(err, "failed to build share token")
	}
	if err := u.uow.Repos().Tokens().Insert(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Redeem is the concurrent-redemption critical path. The unused→used flip is
// a single conditional update; of N racing requests exactly one sees a row
// change and proceeds to the effect. A failed effect releases the token so
// the customer can retry.
func (u *tokenUseCaseImpl) Redeem(ctx context.Context, opaque string, action json.RawMessage) (*RedeemResult, error) {
	repos := u.uow.Repos()
	now := u.clock.Now()

	won, err := repos.Tokens().Consume(ctx, opaque, now)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, u.classifyRedeemFailure(ctx, opaque)
	}

	t, err := repos.Tokens().FindByToken(ctx, opaque)
	if err != nil {
		return nil, err
	}

	if err := u.applier.Reschedule(ctx, t.OrganizationID, t.ResourceID, action); err != nil {
		if releaseErr := repos.Tokens().ReleaseUse(ctx, opaque); releaseErr != nil {
			// Compensation failed: the token stays consumed and the effect did
			// not happen. Surface both; an operator has to resolve this one.
			return nil, errs.Wrap(releaseErr, "token release failed after effect error: "+err.Error())
		}
		tokenRedemptions.WithLabelValues(string(t.Kind), "effect_failed").Inc()
		return nil, errs.Wrap(err, "reschedule effect failed")
	}

	tokenRedemptions.WithLabelValues(string(t.Kind), "redeemed").Inc()
	return &RedeemResult{Token: t}, nil
}

// classifyRedeemFailure re-reads the row so the caller learns which guard
// condition failed. Between the update and this read the state can only move
// further away from valid, so the report is safe.
func (u *tokenUseCaseImpl) classifyRedeemFailure(ctx context.Context, opaque string) error {
	t, err := u.uow.Repos().Tokens().FindByToken(ctx, opaque)
	if infra.IsKind(err, infra.KindNotFound) {
		tokenRedemptions.WithLabelValues("unknown", "not_found").Inc()
		return errs.ErrTokenNotFound
	}
	if err != nil {
		return err
	}

	switch {
	case t.Consumed():
		tokenRedemptions.WithLabelValues(string(t.Kind), "consumed").Inc()
		return errs.ErrTokenConsumed
	case t.Expired(u.clock.Now()):
		tokenRedemptions.WithLabelValues(string(t.Kind), "expired").Inc()
		return errs.ErrTokenExpired
	default:
		return errs.New("token consume failed for unknown reason")
	}
}

func (u *tokenUseCaseImpl) View(ctx context.Context, opaque string) (*ViewResult, error) {
	repos := u.uow.Repos()

	t, err := repos.Tokens().FindByToken(ctx, opaque)
	if infra.IsKind(err, infra.KindNotFound) {
		return nil, errs.ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}

	now := u.clock.Now()
	switch t.Kind {
	case token.KindShare:
		// The increment is bounded in the store; two concurrent views on the
		// last remaining slot cannot both pass.
		counted, err := repos.Tokens().IncrementView(ctx, opaque, now)
		if err != nil {
			return nil, err
		}
		if !counted {
			if t.Expired(now) {
				return nil, errs.ErrTokenExpired
			}
			return nil, errs.ErrTokenExhausted
		}

		t, err = repos.Tokens().FindByToken(ctx, opaque)
		if err != nil {
			return nil, err
		}
		var remaining *int32
		if t.MaxViews != nil {
			r := *t.MaxViews - t.ViewCount
			remaining = &r
		}
		return &ViewResult{Token: t, RemainingViews: remaining}, nil

	default:
		// Viewing a reschedule link costs nothing; only the POST consumes.
		if t.Consumed() {
			return nil, errs.ErrTokenConsumed
		}
		if t.Expired(now) {
			return nil, errs.ErrTokenExpired
		}
		return &ViewResult{Token: t}, nil
	}
}
