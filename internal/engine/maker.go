package engine

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/quaychain/brokerage/internal/domain"
	"github.com/quaychain/brokerage/internal/store"
)

// House identity for the synthetic liquidity provider. The house
// account has an effectively unlimited balance and holdings.
const (
	HouseCustomerID = "house"
	HouseAccountID  = "house-001"

	houseBalance  int64 = 1 << 50 // cents
	houseHoldings int64 = 1 << 40 // shares per symbol
)

// MarketMaker seeds and replenishes each order book with standing
// orders so a market order can always find a counterparty while the
// market is open. Per symbol it keeps one large resting buy below the
// reference price and one large resting sell above it.
type MarketMaker struct {
	volume    int64
	spreadBps int64

	books     *BookManager
	orders    *store.OrderStore
	accounts  *store.AccountStore
	holdings  *store.HoldingStore
	ledger    Ledger
	quotes    *store.QuoteStore
	publisher QuotePublisher
	logger    *slog.Logger
}

// NewMarketMaker creates a MarketMaker placing standing orders of the
// given volume at spreadBps basis points around each reference price.
func NewMarketMaker(
	volume int64,
	spreadBps int64,
	books *BookManager,
	orders *store.OrderStore,
	accounts *store.AccountStore,
	holdings *store.HoldingStore,
	ledger Ledger,
	quotes *store.QuoteStore,
	logger *slog.Logger,
) *MarketMaker {
	if logger == nil {
		logger = slog.Default()
	}
	return &MarketMaker{
		volume:    volume,
		spreadBps: spreadBps,
		books:     books,
		orders:    orders,
		accounts:  accounts,
		holdings:  holdings,
		ledger:    ledger,
		quotes:    quotes,
		logger:    logger,
	}
}

// SetQuotePublisher registers an optional sink for quotes rewritten
// during a reseed.
func (mm *MarketMaker) SetQuotePublisher(p QuotePublisher) {
	mm.publisher = p
}

// OwnsOrder reports whether the order belongs to the house account.
func (mm *MarketMaker) OwnsOrder(o *domain.Order) bool {
	return o.CustomerID == HouseCustomerID
}

// Seed creates (or rebuilds) the house account and, for every symbol
// in prices, replaces the house's standing orders with a fresh buy at
// price×(1−spread) and sell at price×(1+spread). It also initializes
// each symbol's quote from the reference price. Seed runs at session
// open and on administrative reset, regardless of trading hours.
func (mm *MarketMaker) Seed(prices map[string]int64) {
	mm.ensureHouse(prices)

	for symbol, price := range prices {
		book := mm.books.GetOrCreate(symbol)
		book.mu.Lock()

		mm.withdrawLocked(book)

		bid := domain.ApplyBps(price, -mm.spreadBps)
		ask := domain.ApplyBps(price, mm.spreadBps)
		mm.restLocked(book, symbol, domain.SideBuy, bid)
		mm.restLocked(book, symbol, domain.SideSell, ask)

		q, err := mm.quotes.Get(symbol)
		if err != nil {
			q = domain.Quote{Symbol: symbol, LastPrice: price}
		}
		if q.LastPrice == 0 {
			q.LastPrice = price
		}
		if p, v, ok := book.BestBidLevel(); ok {
			q.Bid, q.BidVolume = p, v
		}
		if p, v, ok := book.BestAskLevel(); ok {
			q.Ask, q.AskVolume = p, v
		}
		mm.quotes.Set(q)
		if mm.publisher != nil {
			mm.publisher.PublishQuote(q)
		}

		book.mu.Unlock()
	}
}

// ReplenishLocked inserts a replacement for a fully consumed standing
// order: at the side's current best remaining price, or stepped one
// spread away from the consumed price when that side is now empty.
// Called by the matcher with the book lock held.
func (mm *MarketMaker) ReplenishLocked(book *OrderBook, consumed *domain.Order) {
	price := consumed.Price
	if consumed.Side == domain.SideSell {
		if best, _, ok := book.BestAskLevel(); ok {
			price = best
		} else {
			price = domain.ApplyBps(consumed.Price, mm.spreadBps)
		}
	} else {
		if best, _, ok := book.BestBidLevel(); ok {
			price = best
		} else {
			price = domain.ApplyBps(consumed.Price, -mm.spreadBps)
		}
	}
	mm.restLocked(book, consumed.Symbol, consumed.Side, price)
}

// restLocked creates one standing house order and places it on the
// book, with normal reservation accounting against the house account.
func (mm *MarketMaker) restLocked(book *OrderBook, symbol string, side domain.Side, price int64) {
	if price <= 0 {
		return
	}
	order := &domain.Order{
		OrderID:           uuid.New().String(),
		Type:              domain.OrderTypeLimit,
		Side:              side,
		Symbol:            symbol,
		CustomerID:        HouseCustomerID,
		AccountID:         HouseAccountID,
		Price:             price,
		Quantity:          mm.volume,
		RemainingQuantity: mm.volume,
		Status:            domain.OrderStatusOpen,
		SubmittedAt:       time.Now(),
		Fills:             []*domain.Fill{},
	}

	if side == domain.SideBuy {
		if err := mm.ledger.ReserveCash(HouseAccountID, price*mm.volume); err != nil {
			mm.logger.Error("market maker cash reservation failed",
				slog.String("symbol", symbol), slog.String("error", err.Error()))
			return
		}
		order.ReservedPrice = price
	} else {
		if err := mm.ledger.ReserveShares(HouseCustomerID, symbol, mm.volume); err != nil {
			mm.logger.Error("market maker share reservation failed",
				slog.String("symbol", symbol), slog.String("error", err.Error()))
			return
		}
	}

	mm.orders.Create(order)
	book.Insert(OrderBookEntry{
		Price:       price,
		SubmittedAt: order.SubmittedAt,
		OrderID:     order.OrderID,
		Order:       order,
	})
}

// withdrawLocked cancels the house's resting orders on the book,
// releasing their reservations, so a reseed starts clean.
func (mm *MarketMaker) withdrawLocked(book *OrderBook) {
	for _, entry := range book.Entries() {
		order := entry.Order
		if order.CustomerID != HouseCustomerID {
			continue
		}
		book.Remove(order.OrderID)
		if order.RemainingQuantity > 0 {
			if order.Side == domain.SideBuy && order.ReservedPrice > 0 {
				mm.ledger.ReleaseCash(order.AccountID, order.ReservedPrice*order.RemainingQuantity)
			}
			if order.Side == domain.SideSell {
				mm.ledger.ReleaseShares(order.CustomerID, order.Symbol, order.RemainingQuantity)
			}
			order.DiscardedQuantity += order.RemainingQuantity
			order.RemainingQuantity = 0
		}
		now := time.Now()
		order.Status = domain.OrderStatusCancelled
		order.CancelledAt = &now
	}
}

// ensureHouse creates the house account on first use and keeps its
// balance and per-symbol holdings topped up so reservations for
// standing orders can always be taken.
func (mm *MarketMaker) ensureHouse(prices map[string]int64) {
	if !mm.accounts.Exists(HouseAccountID) {
		_ = mm.accounts.Create(&domain.Account{
			AccountID:  HouseAccountID,
			CustomerID: HouseCustomerID,
			Balance:    houseBalance,
			CreatedAt:  time.Now(),
		})
	}
	for symbol, price := range prices {
		if mm.holdings.Available(HouseCustomerID, symbol) < mm.volume*4 {
			mm.holdings.Grant(HouseCustomerID, symbol, houseHoldings, price)
		}
	}
}
