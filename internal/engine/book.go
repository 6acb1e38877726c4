package engine

import (
	"sync"
	"time"

	"github.com/google/btree"

	"github.com/quaychain/brokerage/internal/domain"
)

// OrderBookEntry represents a single order resting on the book.
type OrderBookEntry struct {
	Price       int64
	SubmittedAt time.Time
	OrderID     string
	Order       *domain.Order
}

// bidLess defines ordering for the buy side: price descending, then
// submitted_at ascending, then order_id ascending. Min() returns the
// best bid (highest price, earliest time).
func bidLess(a, b OrderBookEntry) bool {
	if a.Price != b.Price {
		return a.Price > b.Price
	}
	if !a.SubmittedAt.Equal(b.SubmittedAt) {
		return a.SubmittedAt.Before(b.SubmittedAt)
	}
	return a.OrderID < b.OrderID
}

// askLess defines ordering for the sell side: price ascending, then
// submitted_at ascending, then order_id ascending. Min() returns the
// best ask (lowest price, earliest time).
func askLess(a, b OrderBookEntry) bool {
	if a.Price != b.Price {
		return a.Price < b.Price
	}
	if !a.SubmittedAt.Equal(b.SubmittedAt) {
		return a.SubmittedAt.Before(b.SubmittedAt)
	}
	return a.OrderID < b.OrderID
}

// OrderBook maintains the resting buy and sell orders for a single
// symbol using B-trees with a secondary index for removal by order ID.
// The matching engine owns the book exclusively: every mutation happens
// under the book's write lock, held across a whole matching pass.
type OrderBook struct {
	symbol string
	mu     sync.Mutex
	bids   *btree.BTreeG[OrderBookEntry]
	asks   *btree.BTreeG[OrderBookEntry]
	index  map[string]OrderBookEntry // order_id → entry
}

// NewOrderBook creates an order book for the given symbol.
func NewOrderBook(symbol string) *OrderBook {
	const degree = 32
	return &OrderBook{
		symbol: symbol,
		bids:   btree.NewG[OrderBookEntry](degree, bidLess),
		asks:   btree.NewG[OrderBookEntry](degree, askLess),
		index:  make(map[string]OrderBookEntry),
	}
}

// Insert adds an entry to the side matching its order.
func (ob *OrderBook) Insert(entry OrderBookEntry) {
	if entry.Order.Side == domain.SideBuy {
		ob.bids.ReplaceOrInsert(entry)
	} else {
		ob.asks.ReplaceOrInsert(entry)
	}
	ob.index[entry.OrderID] = entry
}

// Remove deletes an order from the book by order ID using the
// secondary index.
func (ob *OrderBook) Remove(orderID string) {
	entry, ok := ob.index[orderID]
	if !ok {
		return
	}
	delete(ob.index, orderID)
	// Delete is a no-op on the side the entry isn't on.
	ob.bids.Delete(entry)
	ob.asks.Delete(entry)
}

// Contains reports whether the order currently rests on the book.
func (ob *OrderBook) Contains(orderID string) bool {
	_, ok := ob.index[orderID]
	return ok
}

// BestBid returns the highest-priority bid (highest price, earliest time).
func (ob *OrderBook) BestBid() (OrderBookEntry, bool) {
	return ob.bids.Min()
}

// BestAsk returns the highest-priority ask (lowest price, earliest time).
func (ob *OrderBook) BestAsk() (OrderBookEntry, bool) {
	return ob.asks.Min()
}

// bestExcept returns the best entry on the given side whose order ID is
// not in skip. Used by the matching loop to pass over counterparties
// whose settlement failed.
func bestExcept(tree *btree.BTreeG[OrderBookEntry], skip map[string]bool) (OrderBookEntry, bool) {
	var best OrderBookEntry
	found := false
	tree.Ascend(func(entry OrderBookEntry) bool {
		if skip[entry.OrderID] {
			return true
		}
		best = entry
		found = true
		return false
	})
	return best, found
}

// BestBidExcept returns the best bid not in skip.
func (ob *OrderBook) BestBidExcept(skip map[string]bool) (OrderBookEntry, bool) {
	return bestExcept(ob.bids, skip)
}

// BestAskExcept returns the best ask not in skip.
func (ob *OrderBook) BestAskExcept(skip map[string]bool) (OrderBookEntry, bool) {
	return bestExcept(ob.asks, skip)
}

// Crossed reports whether the best bid price is at or above the best
// ask price. A crossed book is matched immediately and never observed
// at rest.
func (ob *OrderBook) Crossed() bool {
	bid, hasBid := ob.BestBid()
	ask, hasAsk := ob.BestAsk()
	return hasBid && hasAsk && bid.Price >= ask.Price
}

// BestBidLevel returns the best bid price and the aggregate remaining
// quantity resting at that price.
func (ob *OrderBook) BestBidLevel() (price, volume int64, ok bool) {
	return bestLevel(ob.bids)
}

// BestAskLevel returns the best ask price and the aggregate remaining
// quantity resting at that price.
func (ob *OrderBook) BestAskLevel() (price, volume int64, ok bool) {
	return bestLevel(ob.asks)
}

func bestLevel(tree *btree.BTreeG[OrderBookEntry]) (price, volume int64, ok bool) {
	tree.Ascend(func(entry OrderBookEntry) bool {
		if !ok {
			price = entry.Price
			ok = true
		} else if entry.Price != price {
			return false
		}
		volume += entry.Order.RemainingQuantity
		return true
	})
	return price, volume, ok
}

// Entries returns every resting entry, bids first. Used by end-of-day
// expiry, which processes the whole book under its write lock.
func (ob *OrderBook) Entries() []OrderBookEntry {
	entries := make([]OrderBookEntry, 0, len(ob.index))
	ob.bids.Ascend(func(e OrderBookEntry) bool {
		entries = append(entries, e)
		return true
	})
	ob.asks.Ascend(func(e OrderBookEntry) bool {
		entries = append(entries, e)
		return true
	})
	return entries
}

// BidCount returns the number of individual buy orders on the book.
func (ob *OrderBook) BidCount() int {
	return ob.bids.Len()
}

// AskCount returns the number of individual sell orders on the book.
func (ob *OrderBook) AskCount() int {
	return ob.asks.Len()
}

// BookManager is a thread-safe map of symbol → OrderBook.
type BookManager struct {
	mu    sync.RWMutex
	books map[string]*OrderBook
}

// NewBookManager creates a new BookManager.
func NewBookManager() *BookManager {
	return &BookManager{
		books: make(map[string]*OrderBook),
	}
}

// GetOrCreate returns the order book for the given symbol, creating
// one if it doesn't already exist.
func (bm *BookManager) GetOrCreate(symbol string) *OrderBook {
	bm.mu.RLock()
	book, ok := bm.books[symbol]
	bm.mu.RUnlock()
	if ok {
		return book
	}

	bm.mu.Lock()
	defer bm.mu.Unlock()
	// Double-check after acquiring write lock.
	if book, ok = bm.books[symbol]; ok {
		return book
	}
	book = NewOrderBook(symbol)
	bm.books[symbol] = book
	return book
}

// Symbols returns the symbols that currently have a book.
func (bm *BookManager) Symbols() []string {
	bm.mu.RLock()
	defer bm.mu.RUnlock()

	symbols := make([]string, 0, len(bm.books))
	for s := range bm.books {
		symbols = append(symbols, s)
	}
	return symbols
}
