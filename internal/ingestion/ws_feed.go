package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"binary-window-lab/internal/domain"
	"binary-window-lab/internal/observability"
)

// WSFeedConfig configures WebSocket feed behavior.
type WSFeedConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultWSFeedConfig returns default WebSocket feed configuration.
func DefaultWSFeedConfig() WSFeedConfig {
	return WSFeedConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// tradeMessage is the wire format of one trade on the feed.
type tradeMessage struct {
	Symbol      string  `json:"symbol"`
	Price       float64 `json:"price"`
	TimestampMs int64   `json:"ts"`
}

// WSFeed streams live exchange trade ticks over a WebSocket connection
// and reconnects with exponential backoff on read errors.
type WSFeed struct {
	endpoint string
	exchange string
	config   WSFeedConfig

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	ticks chan *domain.ExchangeTick

	done chan struct{}
	wg   sync.WaitGroup

	reconnecting atomic.Bool
}

// NewWSFeed connects to the endpoint and starts streaming. The exchange
// name tags every tick produced by this feed.
func NewWSFeed(ctx context.Context, endpoint, exchange string, config *WSFeedConfig) (*WSFeed, error) {
	cfg := DefaultWSFeedConfig()
	if config != nil {
		cfg = *config
	}

	f := &WSFeed{
		endpoint: endpoint,
		exchange: exchange,
		config:   cfg,
		ticks:    make(chan *domain.ExchangeTick, 1000),
		done:     make(chan struct{}),
	}

	if err := f.connect(ctx); err != nil {
		return nil, err
	}

	f.wg.Add(1)
	go f.readLoop()

	f.wg.Add(1)
	go f.pingLoop()

	return f, nil
}

// Ticks returns the stream of parsed trade ticks. The channel is closed
// when the feed is closed.
func (f *WSFeed) Ticks() <-chan *domain.ExchangeTick {
	return f.ticks
}

// connect establishes the WebSocket connection.
func (f *WSFeed) connect(ctx context.Context) error {
	f.connMu.Lock()
	defer f.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, f.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	f.conn = conn
	return nil
}

// Close closes the WebSocket connection and the tick channel.
func (f *WSFeed) Close() error {
	if f.closed.Swap(true) {
		return nil // Already closed
	}

	close(f.done)

	f.connMu.Lock()
	if f.conn != nil {
		f.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		f.conn.Close()
	}
	f.connMu.Unlock()

	f.wg.Wait()
	close(f.ticks)
	return nil
}

// readLoop reads trade messages and publishes parsed ticks.
func (f *WSFeed) readLoop() {
	defer f.wg.Done()

	reconnectDelay := f.config.ReconnectDelay

	for !f.closed.Load() {
		f.connMu.Lock()
		conn := f.conn
		f.connMu.Unlock()

		if conn == nil {
			select {
			case <-f.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(f.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if f.closed.Load() {
				return
			}

			if !f.reconnecting.Swap(true) {
				observability.RecordReconnect()
				go f.reconnect(reconnectDelay)
			}

			reconnectDelay = reconnectDelay * 2
			if reconnectDelay > f.config.MaxReconnectDelay {
				reconnectDelay = f.config.MaxReconnectDelay
			}

			select {
			case <-f.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		// Successful read resets the backoff.
		reconnectDelay = f.config.ReconnectDelay
		readAt := time.Now()

		var msg tradeMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			observability.RecordBadMessage()
			log.Printf("[ws-feed] Skipping malformed message: %v", err)
			continue
		}
		if msg.Symbol == "" || msg.TimestampMs <= 0 {
			observability.RecordBadMessage()
			continue
		}

		tick := &domain.ExchangeTick{
			Exchange:    f.exchange,
			Symbol:      msg.Symbol,
			TimestampMs: msg.TimestampMs,
			Price:       msg.Price,
		}

		select {
		case f.ticks <- tick:
			observability.RecordTickReceived()
			observability.DefaultMetrics.FeedMessageLatency.Observe(time.Since(readAt).Seconds())
		case <-f.done:
			return
		}
	}
}

// reconnect replaces the connection after the given delay.
func (f *WSFeed) reconnect(delay time.Duration) {
	defer f.reconnecting.Store(false)

	select {
	case <-f.done:
		return
	case <-time.After(delay):
	}

	if f.closed.Load() {
		return
	}

	f.connMu.Lock()
	if f.conn != nil {
		f.conn.Close()
		f.conn = nil
	}
	f.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := f.connect(ctx); err != nil {
		log.Printf("[ws-feed] Reconnect failed: %v", err)
		return
	}
	log.Printf("[ws-feed] Reconnected to %s", f.endpoint)
}

// pingLoop keeps the connection alive.
func (f *WSFeed) pingLoop() {
	defer f.wg.Done()

	ticker := time.NewTicker(f.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-f.done:
			return
		case <-ticker.C:
			f.connMu.Lock()
			conn := f.conn
			if conn != nil {
				conn.SetWriteDeadline(time.Now().Add(f.config.WriteTimeout))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					log.Printf("[ws-feed] Ping failed: %v", err)
				}
			}
			f.connMu.Unlock()
		}
	}
}
