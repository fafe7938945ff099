// AngelaMos | 2026
// service_test.go

package user

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/carterperez-dev/blogsy/internal/config"
	"github.com/carterperez-dev/blogsy/internal/core"
	"github.com/carterperez-dev/blogsy/internal/plan"
	"github.com/carterperez-dev/blogsy/internal/post"
)

type memRepo struct {
	byEmail map[string]*User
	linked  int
}

func newMemRepo(users ...*User) *memRepo {
	m := &memRepo{byEmail: map[string]*User{}}
	for _, u := range users {
		m.byEmail[u.Email] = u
	}
	return m
}

func (m *memRepo) UpsertFromIdentity(_ context.Context, p IdentityProfile) (*User, error) {
	u, ok := m.byEmail[p.Email]
	if !ok {
		u = &User{ID: "row_" + p.Email, Email: p.Email, Status: StatusActive, Role: RoleUser}
		m.byEmail[p.Email] = u
	}
	id := p.IdentityID
	u.UserID = &id
	if p.FullName != "" {
		name := p.FullName
		u.FullName = &name
	}
	return u, nil
}

func (m *memRepo) UpsertBilling(_ context.Context, p BillingProfile) (*User, error) {
	u, ok := m.byEmail[p.Email]
	if !ok {
		u = &User{ID: "row_" + p.Email, Email: p.Email, Role: RoleUser}
		m.byEmail[p.Email] = u
	}
	price, customer := p.PriceID, p.CustomerID
	u.PriceID = &price
	u.CustomerID = &customer
	u.Status = StatusActive
	return u, nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, core.ErrNotFound
}

func (m *memRepo) GetByIdentityID(_ context.Context, identityID string) (*User, error) {
	for _, u := range m.byEmail {
		if u.IdentityID() == identityID {
			return u, nil
		}
	}
	return nil, core.ErrNotFound
}

func (m *memRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, core.ErrNotFound
}

func (m *memRepo) LinkIdentity(_ context.Context, email, identityID string) error {
	u, ok := m.byEmail[email]
	if !ok || u.UserID != nil {
		return core.ErrNotFound
	}
	u.UserID = &identityID
	m.linked++
	return nil
}

func (m *memRepo) MarkCancelledByCustomer(_ context.Context, customerID string) (int64, error) {
	var n int64
	for _, u := range m.byEmail {
		if deref(u.CustomerID) == customerID {
			u.Status = StatusCancelled
			n++
		}
	}
	return n, nil
}

func (m *memRepo) MarkCancelledByEmail(_ context.Context, email string) (int64, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return 0, nil
	}
	u.Status = StatusCancelled
	return 1, nil
}

func (m *memRepo) List(context.Context, ListUsersParams) ([]User, int, error) {
	return nil, 0, nil
}

type zeroCounter struct{}

func (zeroCounter) CountByUser(context.Context, string, *time.Time) (int, error) {
	return 1, nil
}

func (zeroCounter) CountByUserAndSource(
	context.Context, string, post.Source, int, time.Month,
) (int, error) {
	return 0, nil
}

func newTestService(repo Repository) *Service {
	return NewService(
		repo,
		plan.NewCatalog(config.PlansConfig{BasicPriceID: "price_basic", ProPriceID: "price_pro"}),
		plan.NewChecker(zeroCounter{}),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func TestHandleIdentityCreatedNormalizesEmail(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)

	u, err := svc.HandleIdentityCreated(context.Background(), IdentityProfile{
		IdentityID: "user_123",
		Email:      "  Writer@Example.COM ",
		FullName:   "Ada Lovelace",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Email != "writer@example.com" {
		t.Fatalf("email = %q", u.Email)
	}
}

func TestHandleIdentityCreatedRequiresEmail(t *testing.T) {
	svc := newTestService(newMemRepo())

	_, err := svc.HandleIdentityCreated(context.Background(), IdentityProfile{IdentityID: "user_1"})
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestCurrentLinksCheckoutRow(t *testing.T) {
	price := "price_pro"
	repo := newMemRepo(&User{ID: "row_1", Email: "buyer@example.com", PriceID: &price, Status: StatusActive})
	svc := newTestService(repo)

	u, err := svc.Current(context.Background(), "user_new", "Buyer@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.IdentityID() != "user_new" || repo.linked != 1 {
		t.Fatalf("identity not linked: %q, linked=%d", u.IdentityID(), repo.linked)
	}

	if got := svc.EffectivePlan(u).ID; got != plan.Pro {
		t.Fatalf("plan = %s, want pro", got)
	}
}

func TestPlanForUnknownUserIsStarter(t *testing.T) {
	svc := newTestService(newMemRepo())

	p, err := svc.PlanFor(context.Background(), "user_ghost", "ghost@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != plan.Starter {
		t.Fatalf("plan = %s, want starter", p.ID)
	}
}

func TestCancelSubscriptionFallsBackToEmail(t *testing.T) {
	price := "price_basic"
	repo := newMemRepo(&User{ID: "row_1", Email: "a@example.com", PriceID: &price, Status: StatusActive})
	svc := newTestService(repo)

	if err := svc.CancelSubscription(context.Background(), "cus_unknown", "A@example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	u := repo.byEmail["a@example.com"]
	if !u.IsCancelled() {
		t.Fatal("user not cancelled")
	}
	if got := svc.EffectivePlan(u).ID; got != plan.Starter {
		t.Fatalf("cancelled plan = %s, want starter", got)
	}
}

func TestCancelSubscriptionUnknownCustomer(t *testing.T) {
	svc := newTestService(newMemRepo())

	err := svc.CancelSubscription(context.Background(), "cus_unknown", "")
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGetMeIncludesUsage(t *testing.T) {
	identity := "user_1"
	repo := newMemRepo(&User{ID: "row_1", UserID: &identity, Email: "me@example.com", Status: StatusActive})
	svc := newTestService(repo)

	me, err := svc.GetMe(context.Background(), identity, "", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if me.Plan.ID != plan.Starter || me.Usage.PostsUsed != 1 || me.Usage.PostsLimit != 3 {
		t.Fatalf("me = %+v usage = %+v", me.Plan, me.Usage)
	}
}
