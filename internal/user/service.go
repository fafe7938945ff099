// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/carterperez-dev/blogsy/internal/core"
	"github.com/carterperez-dev/blogsy/internal/plan"
)

type Service struct {
	repo    Repository
	catalog *plan.Catalog
	quota   *plan.Checker
	logger  *slog.Logger
}

func NewService(
	repo Repository,
	catalog *plan.Catalog,
	quota *plan.Checker,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:    repo,
		catalog: catalog,
		quota:   quota,
		logger:  logger,
	}
}

// HandleIdentityCreated records a newly registered identity, keyed by
// email so a prior checkout row is adopted rather than duplicated.
func (s *Service) HandleIdentityCreated(
	ctx context.Context,
	p IdentityProfile,
) (*User, error) {
	p.Email = normalizeEmail(p.Email)
	p.FullName = strings.TrimSpace(p.FullName)

	if p.Email == "" || p.IdentityID == "" {
		return nil, fmt.Errorf("identity created: %w", core.ErrInvalidInput)
	}

	u, err := s.repo.UpsertFromIdentity(ctx, p)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user synced from identity provider",
		"user_id", u.ID,
		"identity_id", p.IdentityID,
	)
	return u, nil
}

// ApplyCheckout stores the purchased price for the buyer's email and
// reactivates the account.
func (s *Service) ApplyCheckout(
	ctx context.Context,
	p BillingProfile,
) (*User, error) {
	p.Email = normalizeEmail(p.Email)
	if p.Email == "" {
		return nil, fmt.Errorf("apply checkout: missing email: %w", core.ErrInvalidInput)
	}

	u, err := s.repo.UpsertBilling(ctx, p)
	if err != nil {
		return nil, err
	}

	s.logger.Info("subscription activated",
		"user_id", u.ID,
		"price_id", p.PriceID,
		"plan", s.catalog.Resolve(p.PriceID, false).ID,
	)
	return u, nil
}

// CancelSubscription marks the customer's account cancelled, falling back
// to the customer's email when no row carries the customer id.
func (s *Service) CancelSubscription(
	ctx context.Context,
	customerID, email string,
) error {
	if customerID != "" {
		n, err := s.repo.MarkCancelledByCustomer(ctx, customerID)
		if err != nil {
			return err
		}
		if n > 0 {
			s.logger.Info("subscription cancelled", "customer_id", customerID)
			return nil
		}
	}

	email = normalizeEmail(email)
	if email == "" {
		return fmt.Errorf("cancel subscription %s: %w", customerID, core.ErrNotFound)
	}

	n, err := s.repo.MarkCancelledByEmail(ctx, email)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("cancel subscription %s: %w", customerID, core.ErrNotFound)
	}

	s.logger.Info("subscription cancelled by email fallback",
		"customer_id", customerID,
	)
	return nil
}

// Current finds the caller's row by identity subject. A row created by a
// checkout before sign-up is linked to the subject on first sight.
func (s *Service) Current(
	ctx context.Context,
	identityID, email string,
) (*User, error) {
	if identityID == "" {
		return nil, fmt.Errorf("current user: %w", core.ErrUnauthorized)
	}

	u, err := s.repo.GetByIdentityID(ctx, identityID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	email = normalizeEmail(email)
	if email == "" {
		return nil, err
	}

	u, err = s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if u.IdentityID() == "" {
		if linkErr := s.repo.LinkIdentity(ctx, email, identityID); linkErr != nil {
			s.logger.Warn("link identity failed",
				"error", linkErr,
				"user_id", u.ID,
			)
		} else {
			u.UserID = &identityID
			s.logger.Info("identity linked", "user_id", u.ID)
		}
	}

	return u, nil
}

func (s *Service) EffectivePlan(u *User) plan.Plan {
	if u == nil {
		return s.catalog.Resolve("", false)
	}
	return s.catalog.Resolve(u.PlanPriceID(), u.IsCancelled())
}

// PlanFor resolves the caller's effective plan. Callers without a row
// yet are on the starter plan.
func (s *Service) PlanFor(
	ctx context.Context,
	identityID, email string,
) (plan.Plan, error) {
	u, err := s.Current(ctx, identityID, email)
	if errors.Is(err, core.ErrNotFound) {
		return s.EffectivePlan(nil), nil
	}
	if err != nil {
		return plan.Plan{}, err
	}
	return s.EffectivePlan(u), nil
}

func (s *Service) ResolveTier(
	ctx context.Context,
	identityID, email string,
) (string, error) {
	p, err := s.PlanFor(ctx, identityID, email)
	if err != nil {
		return "", err
	}
	return string(p.ID), nil
}

func (s *Service) GetMe(
	ctx context.Context,
	identityID, email string,
	now time.Time,
) (*MeResponse, error) {
	u, err := s.Current(ctx, identityID, email)
	if err != nil {
		return nil, err
	}

	p := s.EffectivePlan(u)
	usage, err := s.quota.Usage(ctx, identityID, p, now)
	if err != nil {
		return nil, err
	}

	return &MeResponse{
		User:  ToUserResponse(u),
		Plan:  p,
		Usage: usage,
	}, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListUsers(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	return s.repo.List(ctx, params)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
