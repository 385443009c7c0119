package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"plandera/internal/model"

	"github.com/stripe/stripe-go/v82"
)

type fakeSubRepo struct {
	mu      sync.Mutex
	byID    map[string]*model.Subscription
	clock   time.Time
	nextID  int
	failFor map[string]error
}

func newFakeSubRepo() *fakeSubRepo {
	return &fakeSubRepo{
		byID:    map[string]*model.Subscription{},
		clock:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		failFor: map[string]error{},
	}
}

func (r *fakeSubRepo) tick() time.Time {
	r.clock = r.clock.Add(time.Minute)
	return r.clock
}

func (r *fakeSubRepo) Create(_ context.Context, sub *model.Subscription) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failFor[sub.StripeSubscriptionID]; err != nil {
		return false, err
	}
	if _, ok := r.byID[sub.StripeSubscriptionID]; ok {
		return false, nil
	}
	r.nextID++
	if sub.ID == "" {
		sub.ID = fmt.Sprintf("rec_%d", r.nextID)
	}
	now := r.tick()
	sub.CreatedAt, sub.UpdatedAt = now, now
	cp := *sub
	r.byID[sub.StripeSubscriptionID] = &cp
	return true, nil
}

func (r *fakeSubRepo) GetByStripeID(_ context.Context, id string) (*model.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSubRepo) Update(_ context.Context, id string, upd model.SubscriptionUpdate) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failFor[id]; err != nil {
		return false, err
	}
	s, ok := r.byID[id]
	if !ok {
		return false, nil
	}
	s.StripePriceID = upd.StripePriceID
	s.StripeCurrentPeriodEnd = upd.StripeCurrentPeriodEnd
	s.Status = upd.Status
	s.Quantity = upd.Quantity
	s.CancelAtPeriodEnd = upd.CancelAtPeriodEnd
	if upd.Plan != nil {
		s.Plan = *upd.Plan
	}
	s.UpdatedAt = r.tick()
	return true, nil
}

func (r *fakeSubRepo) MarkCanceled(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return false, nil
	}
	s.Status = model.StatusCanceled
	s.CancelAtPeriodEnd = false
	s.UpdatedAt = r.tick()
	return true, nil
}

func (r *fakeSubRepo) UpdateStatus(_ context.Context, id string, status model.SubscriptionStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return false, nil
	}
	s.Status = status
	s.UpdatedAt = r.tick()
	return true, nil
}

func (r *fakeSubRepo) UpdateStatusAndPeriodEnd(_ context.Context, id string, status model.SubscriptionStatus, periodEnd *time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return false, nil
	}
	s.Status = status
	s.StripeCurrentPeriodEnd = periodEnd
	s.UpdatedAt = r.tick()
	return true, nil
}

func (r *fakeSubRepo) ListByUser(_ context.Context, userID string) ([]model.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Subscription
	for _, s := range r.byID {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeSubRepo) GetCurrentByUser(ctx context.Context, userID string) (*model.Subscription, error) {
	all, _ := r.ListByUser(ctx, userID)
	for i := range all {
		if all[i].Status.IsCurrent() {
			return &all[i], nil
		}
	}
	return nil, nil
}

func (r *fakeSubRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

type fakeUserRepo struct {
	users     map[string]*model.User
	updateErr error
}

func newFakeUserRepo(users ...model.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[string]*model.User{}}
	for i := range users {
		u := users[i]
		r.users[u.ID] = &u
	}
	return r
}

func (r *fakeUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) UpdateStripeCustomerID(_ context.Context, userID, customerID string) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	u, ok := r.users[userID]
	if !ok {
		return errors.New("no such user")
	}
	u.StripeCustomerID = &customerID
	return nil
}

func (r *fakeUserRepo) ListUsersWithStripeCustomer(_ context.Context) ([]model.User, error) {
	var out []model.User
	for _, u := range r.users {
		if u.CustomerID() != "" {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeProvider struct {
	subs           map[string]*stripe.Subscription
	customerSubs   map[string][]*stripe.Subscription
	customers      map[string]*stripe.Customer
	getErr         error
	listErr        error
	createdCustFor []string
	checkouts      []CheckoutSessionInput
	portals        []string
	getCalls       int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		subs:         map[string]*stripe.Subscription{},
		customerSubs: map[string][]*stripe.Subscription{},
		customers:    map[string]*stripe.Customer{},
	}
}

func (p *fakeProvider) GetSubscription(_ context.Context, id string) (*stripe.Subscription, error) {
	p.getCalls++
	if p.getErr != nil {
		return nil, p.getErr
	}
	s, ok := p.subs[id]
	if !ok {
		return nil, fmt.Errorf("no such subscription %s", id)
	}
	return s, nil
}

func (p *fakeProvider) ListCustomerSubscriptions(_ context.Context, customerID string, limit int64) ([]*stripe.Subscription, error) {
	if p.listErr != nil {
		return nil, p.listErr
	}
	subs := p.customerSubs[customerID]
	if int64(len(subs)) > limit {
		subs = subs[:limit]
	}
	return subs, nil
}

func (p *fakeProvider) FindCustomerByEmail(_ context.Context, email string) (*stripe.Customer, error) {
	return p.customers[email], nil
}

func (p *fakeProvider) CreateCustomer(_ context.Context, user *model.User) (*stripe.Customer, error) {
	p.createdCustFor = append(p.createdCustFor, user.ID)
	return &stripe.Customer{ID: "cus_new_" + user.ID, Email: user.Email}, nil
}

func (p *fakeProvider) CreateCheckoutSession(_ context.Context, in CheckoutSessionInput) (*stripe.CheckoutSession, error) {
	p.checkouts = append(p.checkouts, in)
	return &stripe.CheckoutSession{ID: "cs_test", URL: "https://checkout.stripe.com/c/pay/cs_test"}, nil
}

func (p *fakeProvider) CreatePortalSession(_ context.Context, customerID, returnURL string) (*stripe.BillingPortalSession, error) {
	p.portals = append(p.portals, customerID+" "+returnURL)
	return &stripe.BillingPortalSession{URL: "https://billing.stripe.com/p/session/test"}, nil
}

type notification struct {
	reason string
	sub    model.Subscription
}

type fakeNotifier struct {
	sent []notification
}

func (n *fakeNotifier) SubscriptionChanged(_ context.Context, reason string, sub *model.Subscription) {
	n.sent = append(n.sent, notification{reason: reason, sub: *sub})
}

// stripeSub builds a Stripe subscription with a single item.
func stripeSub(id, priceID string, status stripe.SubscriptionStatus, quantity, periodEnd int64) *stripe.Subscription {
	return &stripe.Subscription{
		ID:     id,
		Status: status,
		Items: &stripe.SubscriptionItemList{
			Data: []*stripe.SubscriptionItem{{
				Price:            &stripe.Price{ID: priceID},
				Quantity:         quantity,
				CurrentPeriodEnd: periodEnd,
			}},
		},
	}
}

func newCustomer(id string) *stripe.Customer {
	return &stripe.Customer{ID: id}
}
