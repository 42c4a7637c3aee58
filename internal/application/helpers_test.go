package application

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/bnema/meli-relist-cli/internal/domain"
	"github.com/stretchr/testify/mock"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

// flatSchedule answers every fee quote from a rate function of the price.
type flatSchedule struct {
	rate        func(price float64) float64
	fixed       float64
	approximate bool
	calls       int
	prices      []float64
}

func newFlatSchedule(rate float64, fixed float64) *flatSchedule {
	return &flatSchedule{rate: func(float64) float64 { return rate }, fixed: fixed}
}

func (s *flatSchedule) QuoteFee(_ context.Context, _ string, _ string, price float64, _ domain.Tier) domain.FeeQuote {
	s.calls++
	s.prices = append(s.prices, price)
	rate := s.rate(price)
	return domain.FeeQuote{
		Rate:        rate,
		FixedFee:    s.fixed,
		TotalFee:    price*rate + s.fixed,
		Approximate: s.approximate,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mockAnyContext() interface{} {
	return mock.Anything
}

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func validAccount(nickname string) domain.Account {
	return domain.Account{
		Nickname:     domain.Nickname(nickname),
		SellerID:     "seller-" + nickname,
		ShippingMode: domain.ShippingModeME2,
		Credential: domain.Credential{
			AccessToken:  "at-" + nickname,
			RefreshToken: "rt-" + nickname,
			ExpiresAt:    testNow.Add(2 * time.Hour),
		},
	}
}

func expiredAccount(nickname string) domain.Account {
	account := validAccount(nickname)
	account.Credential.ExpiresAt = testNow.Add(-time.Minute)
	return account
}
