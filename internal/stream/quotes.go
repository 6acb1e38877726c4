package stream

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/quaychain/brokerage/internal/domain"
)

const (
	subscriberBuffer = 64
	writeWait        = 10 * time.Second
	pingPeriod       = 30 * time.Second
)

// quoteMessage is the JSON frame sent to websocket subscribers.
type quoteMessage struct {
	Symbol    string  `json:"symbol"`
	LastPrice float64 `json:"last_price"`
	Bid       float64 `json:"bid"`
	BidVolume int64   `json:"bid_volume"`
	Ask       float64 `json:"ask"`
	AskVolume int64   `json:"ask_volume"`
}

// QuoteStreamer broadcasts every quote update produced by the matching
// engine to websocket subscribers. It implements the engine's
// QuotePublisher interface.
type QuoteStreamer struct {
	hub      *Hub[domain.Quote]
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewQuoteStreamer creates a QuoteStreamer.
func NewQuoteStreamer(logger *slog.Logger) *QuoteStreamer {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuoteStreamer{
		hub: NewHub[domain.Quote](),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// PublishQuote fans a quote update out to all subscribers.
func (s *QuoteStreamer) PublishQuote(q domain.Quote) {
	s.hub.Broadcast(q)
}

// ServeHTTP upgrades the request to a websocket and streams quote
// updates until the client disconnects.
func (s *QuoteStreamer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	sub := s.hub.Subscribe(subscriberBuffer)
	defer s.hub.Unsubscribe(sub)
	defer conn.Close()

	// Reader goroutine: surfaces client disconnects.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case q, ok := <-sub.C():
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(quoteMessage{
				Symbol:    q.Symbol,
				LastPrice: domain.CentsToDollars(q.LastPrice),
				Bid:       domain.CentsToDollars(q.Bid),
				BidVolume: q.BidVolume,
				Ask:       domain.CentsToDollars(q.Ask),
				AskVolume: q.AskVolume,
			}); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
