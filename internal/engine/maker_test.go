package engine

import (
	"log/slog"
	"testing"

	"github.com/quaychain/brokerage/internal/domain"
)

func newTestMaker(t *testing.T, env *testEnv, volume, spreadBps int64) *MarketMaker {
	t.Helper()
	maker := NewMarketMaker(volume, spreadBps, env.books, env.orders, env.accounts, env.holdings, env.ledger, env.quotes, slog.Default())
	env.matcher.SetLiquidityProvider(maker)
	return maker
}

func TestMarketMaker_Seed_PlacesStandingOrders(t *testing.T) {
	env := newTestEnv(t)
	maker := newTestMaker(t, env, 20000, 30)

	maker.Seed(map[string]int64{"AAPL": 32700})

	if !env.accounts.Exists(HouseAccountID) {
		t.Fatal("house account not created")
	}

	book := env.books.GetOrCreate("AAPL")
	if book.BidCount() != 1 || book.AskCount() != 1 {
		t.Fatalf("book = %d bids / %d asks, want 1/1", book.BidCount(), book.AskCount())
	}

	bid, _ := book.BestBid()
	ask, _ := book.BestAsk()
	if bid.Price != domain.ApplyBps(32700, -30) {
		t.Errorf("bid price = %d, want %d", bid.Price, domain.ApplyBps(32700, -30))
	}
	if ask.Price != domain.ApplyBps(32700, 30) {
		t.Errorf("ask price = %d, want %d", ask.Price, domain.ApplyBps(32700, 30))
	}
	if bid.Order.Quantity != 20000 || ask.Order.Quantity != 20000 {
		t.Error("standing orders do not carry the configured volume")
	}
	if book.Crossed() {
		t.Error("seeded book is crossed")
	}

	q, err := env.quotes.Get("AAPL")
	if err != nil {
		t.Fatalf("quote not initialized: %v", err)
	}
	if q.LastPrice != 32700 {
		t.Errorf("last price = %d, want 32700", q.LastPrice)
	}
	if q.Bid != bid.Price || q.Ask != ask.Price {
		t.Errorf("quote bid/ask = %d/%d, want %d/%d", q.Bid, q.Ask, bid.Price, ask.Price)
	}
}

func TestMarketMaker_Seed_ReplacesPreviousOrders(t *testing.T) {
	env := newTestEnv(t)
	maker := newTestMaker(t, env, 20000, 30)

	maker.Seed(map[string]int64{"AAPL": 32700})
	maker.Seed(map[string]int64{"AAPL": 32700})

	book := env.books.GetOrCreate("AAPL")
	if book.BidCount() != 1 || book.AskCount() != 1 {
		t.Fatalf("book = %d bids / %d asks after reseed, want 1/1", book.BidCount(), book.AskCount())
	}

	// The house reservation must cover exactly the live standing orders.
	house, _ := env.accounts.Get(HouseAccountID)
	bid, _ := book.BestBid()
	if house.Reserved != bid.Price*20000 {
		t.Errorf("house reserved = %d, want %d", house.Reserved, bid.Price*20000)
	}
}

func TestMarketMaker_ProvidesLiquidityForMarketOrders(t *testing.T) {
	env := newTestEnv(t)
	maker := newTestMaker(t, env, 20000, 30)
	maker.Seed(map[string]int64{"AAPL": 32700})

	env.openAccount(t, "acct-b", "cust-b", 100_000_000)

	askPrice := domain.ApplyBps(32700, 30)
	bid := env.submit(t, domain.OrderTypeMarket, domain.SideBuy, "AAPL", "cust-b", "acct-b", 0, 600)

	if bid.Status != domain.OrderStatusFilled {
		t.Fatalf("bid status = %s, want filled", bid.Status)
	}
	if len(bid.Fills) != 1 || bid.Fills[0].Price != askPrice {
		t.Fatalf("fills = %+v, want one fill at %d", bid.Fills, askPrice)
	}
}

func TestMarketMaker_ReplenishesConsumedOrder(t *testing.T) {
	env := newTestEnv(t)
	maker := newTestMaker(t, env, 300, 30)
	maker.Seed(map[string]int64{"AAPL": 32700})

	env.openAccount(t, "acct-b", "cust-b", 100_000_000)

	// Consume the whole standing ask.
	askPrice := domain.ApplyBps(32700, 30)
	bid := env.submit(t, domain.OrderTypeLimit, domain.SideBuy, "AAPL", "cust-b", "acct-b", askPrice, 300)

	if bid.Status != domain.OrderStatusFilled {
		t.Fatalf("bid status = %s, want filled", bid.Status)
	}

	book := env.books.GetOrCreate("AAPL")
	if book.AskCount() != 1 {
		t.Fatalf("ask count = %d, want 1 (replenished)", book.AskCount())
	}
	ask, _ := book.BestAsk()
	if !maker.OwnsOrder(ask.Order) {
		t.Error("replenished ask not owned by the house")
	}
	// The side emptied, so the replacement steps one spread up.
	if ask.Price != domain.ApplyBps(askPrice, 30) {
		t.Errorf("replenished ask price = %d, want %d", ask.Price, domain.ApplyBps(askPrice, 30))
	}
	if ask.Order.RemainingQuantity != 300 {
		t.Errorf("replenished volume = %d, want 300", ask.Order.RemainingQuantity)
	}
	if book.Crossed() {
		t.Error("book crossed after replenishment")
	}
}

// recordingPublisher captures quotes pushed through the publisher hook.
type recordingPublisher struct {
	quotes []domain.Quote
}

func (p *recordingPublisher) PublishQuote(q domain.Quote) {
	p.quotes = append(p.quotes, q)
}

func TestMarketMaker_Seed_PublishesQuotes(t *testing.T) {
	env := newTestEnv(t)
	maker := newTestMaker(t, env, 20000, 30)
	pub := &recordingPublisher{}
	maker.SetQuotePublisher(pub)

	maker.Seed(map[string]int64{"AAPL": 32700})

	if len(pub.quotes) != 1 {
		t.Fatalf("published quotes = %d, want 1", len(pub.quotes))
	}
	q := pub.quotes[0]
	if q.Symbol != "AAPL" || q.LastPrice != 32700 {
		t.Errorf("published quote = %+v, want AAPL at 32700", q)
	}
	if q.Bid != domain.ApplyBps(32700, -30) || q.Ask != domain.ApplyBps(32700, 30) {
		t.Errorf("published bid/ask = %d/%d, want %d/%d",
			q.Bid, q.Ask, domain.ApplyBps(32700, -30), domain.ApplyBps(32700, 30))
	}

	// Reseeding publishes again so subscribers see the reset.
	maker.Seed(map[string]int64{"AAPL": 32700})
	if len(pub.quotes) != 2 {
		t.Errorf("published quotes after reseed = %d, want 2", len(pub.quotes))
	}
}

func TestMarketMaker_OwnsOrder(t *testing.T) {
	env := newTestEnv(t)
	maker := newTestMaker(t, env, 20000, 30)

	if !maker.OwnsOrder(&domain.Order{CustomerID: HouseCustomerID}) {
		t.Error("OwnsOrder(house order) = false")
	}
	if maker.OwnsOrder(&domain.Order{CustomerID: "cust-1"}) {
		t.Error("OwnsOrder(customer order) = true")
	}
}
