package plan

import (
	"fmt"

	"plandera/internal/config"
)

// Plan codes as stored in subscriptions.plan and sent by the pricing page.
const (
	PersonalManagedMonthly = "PERSONAL_MANAGED_MONTHLY"
	PersonalManagedYearly  = "PERSONAL_MANAGED_YEARLY"
	BusinessManaged        = "BUSINESS_MANAGED"
	BusinessSelfHosted     = "BUSINESS_SELFHOSTED"
)

// Plan is a sellable plan and the Stripe price backing it.
type Plan struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	PriceID     string `json:"price_id"`
	AmountCents int64  `json:"amount_cents"`
	Interval    string `json:"interval"`
	PerSeat     bool   `json:"per_seat"`
}

// Catalog resolves plans by code and by Stripe price id. It is built once at
// startup and read-only afterwards.
type Catalog struct {
	plans       []Plan
	byCode      map[string]Plan
	byPrice     map[string]string
	defaultCode string
}

// NewCatalog builds the catalog from configured price ids.
func NewCatalog(cfg *config.Config) (*Catalog, error) {
	plans := []Plan{
		{Code: PersonalManagedMonthly, Name: "Personal Managed (Monthly)", PriceID: cfg.StripePricePersonalManagedMonthly, AmountCents: 499, Interval: "month"},
		{Code: PersonalManagedYearly, Name: "Personal Managed (Yearly)", PriceID: cfg.StripePricePersonalManagedYearly, AmountCents: 4900, Interval: "year"},
		{Code: BusinessManaged, Name: "Business Managed", PriceID: cfg.StripePriceBusinessManaged, AmountCents: 1999, Interval: "month", PerSeat: true},
		{Code: BusinessSelfHosted, Name: "Business Self-Hosted", PriceID: cfg.StripePriceBusinessSelfHosted, AmountCents: 999, Interval: "month", PerSeat: true},
	}
	return New(plans, cfg.StripePriceAliases, cfg.DefaultPlan)
}

// New builds a catalog from explicit plans. aliases maps additional price ids
// onto existing plan codes.
func New(plans []Plan, aliases map[string]string, defaultCode string) (*Catalog, error) {
	c := &Catalog{
		plans:   plans,
		byCode:  make(map[string]Plan, len(plans)),
		byPrice: make(map[string]string, len(plans)+len(aliases)),
	}
	for _, p := range plans {
		if _, dup := c.byCode[p.Code]; dup {
			return nil, fmt.Errorf("duplicate plan code %s", p.Code)
		}
		c.byCode[p.Code] = p
		if p.PriceID == "" {
			continue
		}
		if other, dup := c.byPrice[p.PriceID]; dup {
			return nil, fmt.Errorf("price %s configured for both %s and %s", p.PriceID, other, p.Code)
		}
		c.byPrice[p.PriceID] = p.Code
	}
	for priceID, code := range aliases {
		if _, ok := c.byCode[code]; !ok {
			return nil, fmt.Errorf("price alias %s points at unknown plan %s", priceID, code)
		}
		if _, dup := c.byPrice[priceID]; dup {
			continue
		}
		c.byPrice[priceID] = code
	}
	if _, ok := c.byCode[defaultCode]; !ok {
		return nil, fmt.Errorf("default plan %s is not a known plan", defaultCode)
	}
	c.defaultCode = defaultCode
	return c, nil
}

// Get returns the plan for code.
func (c *Catalog) Get(code string) (Plan, bool) {
	p, ok := c.byCode[code]
	return p, ok
}

// Valid reports whether code names a known plan.
func (c *Catalog) Valid(code string) bool {
	_, ok := c.byCode[code]
	return ok
}

// CodeForPrice returns the plan code mapped to a Stripe price id.
func (c *Catalog) CodeForPrice(priceID string) (string, bool) {
	if priceID == "" {
		return "", false
	}
	code, ok := c.byPrice[priceID]
	return code, ok
}

// Resolve picks the plan for a Stripe subscription: the price mapping first,
// then a plan code carried in metadata, then the default plan.
func (c *Catalog) Resolve(priceID, metadataPlan string) string {
	if code, ok := c.CodeForPrice(priceID); ok {
		return code
	}
	if c.Valid(metadataPlan) {
		return metadataPlan
	}
	return c.defaultCode
}

// Default returns the fallback plan code.
func (c *Catalog) Default() string {
	return c.defaultCode
}

// All returns the plans in display order.
func (c *Catalog) All() []Plan {
	out := make([]Plan, len(c.plans))
	copy(out, c.plans)
	return out
}
