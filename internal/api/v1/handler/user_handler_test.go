package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"plandera/internal/api/v1/dto"
	"plandera/internal/model"
	"plandera/internal/plan"
	"plandera/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct {
	users map[string]*model.User
}

func (f *fakeUsers) Get(_ context.Context, id string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, service.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) LookupStripeCustomer(context.Context, *model.User) (string, error) {
	return "", service.ErrNoStripeCustomer
}

func (f *fakeUsers) EnsureStripeCustomer(context.Context, *model.User) (string, error) {
	return "", service.ErrNoStripeCustomer
}

func userMux(t *testing.T, users *fakeUsers, sessions *fakeSessions) *http.ServeMux {
	t.Helper()
	catalog, err := plan.New([]plan.Plan{
		{Code: plan.PersonalManagedMonthly, Name: "Personal Managed (Monthly)", PriceID: "price_pm", AmountCents: 499, Interval: "month"},
		{Code: plan.BusinessManaged, Name: "Business Managed", PriceID: "price_biz", AmountCents: 1999, Interval: "month", PerSeat: true},
	}, nil, plan.PersonalManagedMonthly)
	require.NoError(t, err)
	authMw, _ := authMiddlewares(sessions)
	mux := http.NewServeMux()
	NewUserHandler(users, catalog).RegisterRoutes(mux, authMw)
	return mux
}

func TestGetMe(t *testing.T) {
	created := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	cus := "cus_1"
	users := &fakeUsers{users: map[string]*model.User{
		"u1": {ID: "u1", Name: "Ada", Email: "a@example.com", StripeCustomerID: &cus, CreatedAt: created},
	}}
	rec := httptest.NewRecorder()
	userMux(t, users, newFakeSessions(testSession("tok_1", "u1"))).ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/users/me", nil)))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[dto.UserResponseDTO](t, rec)
	assert.Equal(t, "a@example.com", resp.Email)
	assert.True(t, resp.HasStripeCustomer)
	assert.True(t, created.Equal(resp.CreatedAt))
	assert.NotContains(t, rec.Body.String(), "cus_1")
}

func TestGetMeUnknownUser(t *testing.T) {
	rec := httptest.NewRecorder()
	userMux(t, &fakeUsers{users: map[string]*model.User{}}, newFakeSessions(testSession("tok_1", "u1"))).
		ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/users/me", nil)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListPlans(t *testing.T) {
	rec := httptest.NewRecorder()
	userMux(t, &fakeUsers{}, newFakeSessions()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/plans", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	plans := decode[[]dto.PlanDTO](t, rec)
	require.Len(t, plans, 2)
	assert.Equal(t, dto.PlanDTO{Code: plan.BusinessManaged, Name: "Business Managed", AmountCents: 1999, Interval: "month", PerSeat: true}, plans[1])
	assert.NotContains(t, rec.Body.String(), "price_biz")
}
