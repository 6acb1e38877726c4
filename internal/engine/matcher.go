package engine

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/quaychain/brokerage/internal/domain"
	"github.com/quaychain/brokerage/internal/store"
)

// LiquidityProvider is the market maker surface the matcher needs:
// recognizing house orders and replenishing a standing order that a
// fill fully consumed. ReplenishLocked is called with the symbol's
// book lock held.
type LiquidityProvider interface {
	OwnsOrder(o *domain.Order) bool
	ReplenishLocked(book *OrderBook, consumed *domain.Order)
}

// QuotePublisher receives every quote recomputed by the engine.
type QuotePublisher interface {
	PublishQuote(q domain.Quote)
}

// Matcher is the matching engine: it consumes new and cancel order
// requests, mutates the per-symbol order books, produces fills settled
// through the ledger, and keeps quotes current. At most one matching
// pass runs against a symbol's book at any instant; passes on
// different symbols proceed in parallel.
type Matcher struct {
	books     *BookManager
	ledger    Ledger
	orders    *store.OrderStore
	quotes    *store.QuoteStore
	session   *SessionGuard
	maker     LiquidityProvider
	publisher QuotePublisher
	logger    *slog.Logger
}

// NewMatcher creates a Matcher with the given dependencies.
func NewMatcher(
	books *BookManager,
	ledger Ledger,
	orders *store.OrderStore,
	quotes *store.QuoteStore,
	session *SessionGuard,
	logger *slog.Logger,
) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{
		books:   books,
		ledger:  ledger,
		orders:  orders,
		quotes:  quotes,
		session: session,
		logger:  logger,
	}
}

// SetLiquidityProvider wires the market maker in after construction
// (the maker itself needs the books and ledger, so the two are built
// in sequence).
func (m *Matcher) SetLiquidityProvider(p LiquidityProvider) {
	m.maker = p
}

// SetQuotePublisher registers an optional sink for quote updates.
func (m *Matcher) SetQuotePublisher(p QuotePublisher) {
	m.publisher = p
}

// Submit processes an incoming order through the matching engine.
//
// Preconditions: the market session is open and the quantity is a
// positive lot-size multiple; violations reject the order outright.
// Insufficient funds or holdings never reject: the order is accepted
// and capped to the affordable/held quantity, the excess discarded.
//
// The caller provides an Order with Type, Side, Symbol, CustomerID,
// AccountID, Price (limit only), and Quantity set. The matcher assigns
// OrderID and SubmittedAt and manages all status transitions. The
// per-symbol write lock is held for the entire matching pass.
func (m *Matcher) Submit(order *domain.Order) ([]*domain.Fill, error) {
	if !m.session.IsOpen() {
		return nil, domain.ErrMarketClosed
	}
	if !domain.ValidQuantity(order.Quantity) {
		return nil, &domain.ValidationError{
			Message: "quantity must be a positive multiple of the lot size",
		}
	}

	book := m.books.GetOrCreate(order.Symbol)
	book.mu.Lock()
	defer book.mu.Unlock()

	order.OrderID = uuid.New().String()
	order.SubmittedAt = time.Now()
	order.Status = domain.OrderStatusOpen
	order.Fills = []*domain.Fill{}

	if err := m.acceptLocked(book, order); err != nil {
		return nil, err
	}
	m.orders.Create(order)

	fills := m.matchLocked(book, order)

	// Rest or discard the remainder.
	if order.RemainingQuantity > 0 {
		if order.Type == domain.OrderTypeLimit {
			book.Insert(OrderBookEntry{
				Price:       order.Price,
				SubmittedAt: order.SubmittedAt,
				OrderID:     order.OrderID,
				Order:       order,
			})
		} else {
			m.discardRemainderLocked(order)
		}
	}

	finalizeStatus(order)
	m.refreshQuoteLocked(book, order.Symbol, lastFillPrice(fills))

	return fills, nil
}

// acceptLocked applies the balance/holdings acceptance policy: it caps
// the order's workable quantity to what the account can afford (buy)
// or the customer actually holds un-reserved (sell), rounded down to a
// lot multiple, and takes the corresponding reservation. The capped-off
// excess is discarded immediately and never rests.
func (m *Matcher) acceptLocked(book *OrderBook, order *domain.Order) error {
	effective := order.Quantity

	switch order.Side {
	case domain.SideBuy:
		available, err := m.ledger.AvailableCash(order.AccountID)
		if err != nil {
			return err
		}
		refPrice := order.Price
		if order.Type == domain.OrderTypeMarket {
			// Market buys reference the current ask.
			if ask, _, ok := book.BestAskLevel(); ok {
				refPrice = ask
			} else if q, qerr := m.quotes.Get(order.Symbol); qerr == nil {
				refPrice = q.LastPrice
			}
		}
		if refPrice <= 0 {
			// No price basis at all: nothing is workable.
			effective = 0
			break
		}
		if affordable := domain.FloorToLot(available / refPrice); affordable < effective {
			effective = affordable
		}
		// Only limit buys reserve cash; market buys execute immediately
		// and are re-capped against available cash at each fill.
		if order.Type == domain.OrderTypeLimit && effective > 0 {
			if err := m.ledger.ReserveCash(order.AccountID, effective*order.Price); err != nil {
				return err
			}
			order.ReservedPrice = order.Price
		}

	case domain.SideSell:
		held := domain.FloorToLot(m.ledger.AvailableShares(order.CustomerID, order.Symbol))
		if held < effective {
			effective = held
		}
		if effective > 0 {
			if err := m.ledger.ReserveShares(order.CustomerID, order.Symbol, effective); err != nil {
				return err
			}
		}
	}

	order.RemainingQuantity = effective
	order.DiscardedQuantity = order.Quantity - effective
	return nil
}

// matchLocked runs the matching loop: while the incoming order has
// workable quantity and a crossable counterparty exists, fill against
// the best-priority resting order at the resting order's price, settle
// atomically, and top up consumed market-maker orders. A settlement
// failure is logged as a defect and treated as "no match" for that
// counterparty only.
func (m *Matcher) matchLocked(book *OrderBook, order *domain.Order) []*domain.Fill {
	var fills []*domain.Fill
	skip := make(map[string]bool)
	executedAt := time.Now()

	for order.RemainingQuantity > 0 {
		var entry OrderBookEntry
		var found bool
		if order.Side == domain.SideBuy {
			entry, found = book.BestAskExcept(skip)
		} else {
			entry, found = book.BestBidExcept(skip)
		}
		if !found {
			break
		}

		// Limit orders stop at their price; market orders take the
		// opposite side's best available price, whatever it is.
		if order.Type == domain.OrderTypeLimit {
			if order.Side == domain.SideBuy && order.Price < entry.Price {
				break
			}
			if order.Side == domain.SideSell && entry.Price < order.Price {
				break
			}
		}

		resting := entry.Order
		price := entry.Price // the resting order sets the trade price
		fillQty := min64(order.RemainingQuantity, resting.RemainingQuantity)

		// Market buys carry no reservation: re-cap each fill against
		// the cash actually available at this price level.
		if order.Side == domain.SideBuy && order.Type == domain.OrderTypeMarket {
			available, err := m.ledger.AvailableCash(order.AccountID)
			if err != nil {
				break
			}
			affordable := domain.FloorToLot(available / price)
			if affordable <= 0 {
				break
			}
			if fillQty > affordable {
				fillQty = affordable
			}
		}

		buy, sell := order, resting
		if order.Side == domain.SideSell {
			buy, sell = resting, order
		}

		if err := m.ledger.Settle(FillTicket{
			Symbol:   order.Symbol,
			Buy:      buy,
			Sell:     sell,
			Quantity: fillQty,
			Price:    price,
		}); err != nil {
			// Should be unreachable when the reservation protocol is
			// followed; log as a defect and move to the next candidate.
			m.logger.Error("settlement failed, skipping counterparty",
				slog.String("symbol", order.Symbol),
				slog.String("order_id", order.OrderID),
				slog.String("resting_order_id", resting.OrderID),
				slog.String("error", err.Error()),
			)
			skip[resting.OrderID] = true
			continue
		}

		fillID := uuid.New().String()
		incoming := &domain.Fill{
			FillID:     fillID,
			OrderID:    order.OrderID,
			Price:      price,
			Quantity:   fillQty,
			ExecutedAt: executedAt,
		}
		counter := &domain.Fill{
			FillID:     fillID,
			OrderID:    resting.OrderID,
			Price:      price,
			Quantity:   fillQty,
			ExecutedAt: executedAt,
		}

		order.RemainingQuantity -= fillQty
		order.FilledQuantity += fillQty
		order.Fills = append(order.Fills, incoming)
		resting.RemainingQuantity -= fillQty
		resting.FilledQuantity += fillQty
		resting.Fills = append(resting.Fills, counter)
		fills = append(fills, incoming)

		if resting.RemainingQuantity == 0 {
			resting.Status = domain.OrderStatusFilled
			book.Remove(resting.OrderID)
			// Keep the book two-sided: a fully consumed standing
			// market-maker order is immediately replaced.
			if m.maker != nil && m.maker.OwnsOrder(resting) {
				m.maker.ReplenishLocked(book, resting)
			}
		} else {
			resting.Status = domain.OrderStatusPartialFilled
		}
	}

	return fills
}

// discardRemainderLocked drops an unfilled market remainder once no
// crossable counterparty remains, releasing the sell-side share
// reservation covering it.
func (m *Matcher) discardRemainderLocked(order *domain.Order) {
	if order.Side == domain.SideSell {
		m.ledger.ReleaseShares(order.CustomerID, order.Symbol, order.RemainingQuantity)
	}
	order.DiscardedQuantity += order.RemainingQuantity
	order.RemainingQuantity = 0
}

// Cancel cancels an open or partially filled order on behalf of its
// owner, releasing any unsettled reservation. It acquires the same
// per-symbol lock the matching pass uses, so a cancel can never race a
// fill for the same order.
func (m *Matcher) Cancel(orderID, customerID string) (*domain.Order, error) {
	if !m.session.IsOpen() {
		return nil, domain.ErrMarketClosed
	}

	order, err := m.orders.Get(orderID)
	if err != nil {
		return nil, domain.ErrOrderNotFound
	}
	if order.CustomerID != customerID {
		return nil, domain.ErrUnauthorized
	}

	book := m.books.GetOrCreate(order.Symbol)
	book.mu.Lock()
	defer book.mu.Unlock()

	// Re-check under the lock; a concurrent pass may have filled it.
	switch order.Status {
	case domain.OrderStatusOpen, domain.OrderStatusPartialFilled:
	default:
		return nil, domain.ErrOrderNotCancellable
	}

	book.Remove(order.OrderID)
	m.releaseRemainderLocked(order)

	now := time.Now()
	order.Status = domain.OrderStatusCancelled
	order.CancelledAt = &now

	m.refreshQuoteLocked(book, order.Symbol, nil)
	return order, nil
}

// ExpireAll expires every resting order with an unfilled remainder and
// releases its reservation. The session guard invokes it once at
// market close; calling it again is a no-op since expired orders are
// terminal and the books are empty.
func (m *Matcher) ExpireAll() {
	for _, symbol := range m.books.Symbols() {
		book := m.books.GetOrCreate(symbol)
		book.mu.Lock()

		for _, entry := range book.Entries() {
			order := entry.Order
			if order.IsTerminal() {
				book.Remove(order.OrderID)
				continue
			}
			book.Remove(order.OrderID)
			m.releaseRemainderLocked(order)

			now := time.Now()
			order.Status = domain.OrderStatusExpired
			order.ExpiredAt = &now
		}

		m.refreshQuoteLocked(book, symbol, nil)
		book.mu.Unlock()
	}
}

// releaseRemainderLocked returns the reservation covering an order's
// unfilled remainder and moves that remainder to discarded.
func (m *Matcher) releaseRemainderLocked(order *domain.Order) {
	if order.RemainingQuantity <= 0 {
		return
	}
	if order.Side == domain.SideBuy && order.ReservedPrice > 0 {
		m.ledger.ReleaseCash(order.AccountID, order.ReservedPrice*order.RemainingQuantity)
	}
	if order.Side == domain.SideSell {
		m.ledger.ReleaseShares(order.CustomerID, order.Symbol, order.RemainingQuantity)
	}
	order.DiscardedQuantity += order.RemainingQuantity
	order.RemainingQuantity = 0
}

// refreshQuoteLocked recomputes the symbol's quote from the best
// resting prices. lastPrice, when non-nil, is the price of the pass's
// final fill. Called with the book lock held after every mutation.
func (m *Matcher) refreshQuoteLocked(book *OrderBook, symbol string, lastPrice *int64) {
	q, err := m.quotes.Get(symbol)
	if err != nil {
		q = domain.Quote{Symbol: symbol}
	}
	if lastPrice != nil {
		q.LastPrice = *lastPrice
	}

	q.Bid, q.BidVolume = 0, 0
	if price, volume, ok := book.BestBidLevel(); ok {
		q.Bid, q.BidVolume = price, volume
	}
	q.Ask, q.AskVolume = 0, 0
	if price, volume, ok := book.BestAskLevel(); ok {
		q.Ask, q.AskVolume = price, volume
	}

	m.quotes.Set(q)
	if m.publisher != nil {
		m.publisher.PublishQuote(q)
	}
}

// finalizeStatus derives the order's status from its quantities once a
// pass is over. An order whose whole quantity was discarded unfilled
// ends cancelled; one with fills and no workable remainder ends
// partial_filled or filled.
func finalizeStatus(order *domain.Order) {
	switch {
	case order.FilledQuantity == order.Quantity:
		order.Status = domain.OrderStatusFilled
	case order.FilledQuantity > 0:
		order.Status = domain.OrderStatusPartialFilled
	case order.RemainingQuantity > 0:
		order.Status = domain.OrderStatusOpen
	default:
		order.Status = domain.OrderStatusCancelled
	}
}

func lastFillPrice(fills []*domain.Fill) *int64 {
	if len(fills) == 0 {
		return nil
	}
	p := fills[len(fills)-1].Price
	return &p
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
