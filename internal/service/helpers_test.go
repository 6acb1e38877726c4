package service

import (
	"log/slog"
	"testing"
	"time"

	"github.com/quaychain/brokerage/internal/domain"
	"github.com/quaychain/brokerage/internal/engine"
	"github.com/quaychain/brokerage/internal/store"
)

type serviceEnv struct {
	orderSvc     *OrderService
	accountSvc   *AccountService
	quoteSvc     *QuoteService
	portfolioSvc *PortfolioService
	marketSvc    *MarketService

	matcher   *engine.Matcher
	maker     *engine.MarketMaker
	session   *engine.SessionGuard
	accounts  *store.AccountStore
	holdings  *store.HoldingStore
	transfers *store.TransferStore
	orders    *store.OrderStore
	quotes    *store.QuoteStore
	books     *engine.BookManager
}

// newServiceEnv wires the full engine behind the services with the
// session pinned to a weekday mid-session instant.
func newServiceEnv(t *testing.T) *serviceEnv {
	t.Helper()

	accounts := store.NewAccountStore()
	holdings := store.NewHoldingStore()
	transfers := store.NewTransferStore()
	orders := store.NewOrderStore()
	quotes := store.NewQuoteStore()
	books := engine.NewBookManager()
	ledger := engine.NewStoreLedger(accounts, holdings, transfers)

	session := engine.NewSessionGuard(0, 24*60)
	// 2026-09-02 is a Wednesday.
	session.SetClock(func() time.Time {
		return time.Date(2026, 9, 2, 12, 0, 0, 0, time.UTC)
	})

	matcher := engine.NewMatcher(books, ledger, orders, quotes, session, slog.Default())
	maker := engine.NewMarketMaker(20000, 30, books, orders, accounts, holdings, ledger, quotes, slog.Default())
	matcher.SetLiquidityProvider(maker)

	prices := map[string]int64{"AAPL": 15000, "GOOG": 20000}

	env := &serviceEnv{
		orderSvc:     NewOrderService(matcher, accounts, orders, quotes),
		accountSvc:   NewAccountService(accounts, holdings, transfers, quotes),
		quoteSvc:     NewQuoteService(quotes),
		portfolioSvc: NewPortfolioService(holdings, quotes),
		marketSvc:    NewMarketService(session, maker, prices),

		matcher:   matcher,
		maker:     maker,
		session:   session,
		accounts:  accounts,
		holdings:  holdings,
		transfers: transfers,
		orders:    orders,
		quotes:    quotes,
		books:     books,
	}
	env.marketSvc.Reset()
	return env
}

func (e *serviceEnv) closeMarket() {
	// 2026-09-05 is a Saturday.
	e.session.SetClock(func() time.Time {
		return time.Date(2026, 9, 5, 12, 0, 0, 0, time.UTC)
	})
}

func (e *serviceEnv) openTestAccount(t *testing.T, customerID string, deposit float64) *domain.Account {
	t.Helper()
	account, err := e.accountSvc.Open(OpenAccountRequest{
		CustomerID:     customerID,
		InitialDeposit: deposit,
	})
	if err != nil {
		t.Fatalf("open account for %s: %v", customerID, err)
	}
	return account
}

func floatPtr(f float64) *float64 { return &f }
