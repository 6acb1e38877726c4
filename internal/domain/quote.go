package domain

// Quote holds the per-symbol market state derived from the order book.
// It is fully recomputed by the matching engine after each matching
// pass; LastPrice changes only on an actual fill. All prices in cents.
type Quote struct {
	Symbol    string
	LastPrice int64
	Bid       int64 // best resting buy price, 0 when side empty
	BidVolume int64 // aggregate quantity resting at Bid
	Ask       int64 // best resting sell price, 0 when side empty
	AskVolume int64 // aggregate quantity resting at Ask
}
