package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"tick-feature-lab/internal/domain"
	"tick-feature-lab/internal/observability"
)

// Errors
var (
	// ErrInvalidTrade is returned for trade messages that cannot become a transaction.
	ErrInvalidTrade = errors.New("invalid trade message")

	errFeedClosed = errors.New("feed closed")
)

// FeedConfig configures TradeFeed behavior.
type FeedConfig struct {
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
	// BufferSize is the capacity of the Trades channel.
	BufferSize int
}

// DefaultFeedConfig returns default feed configuration.
func DefaultFeedConfig() FeedConfig {
	return FeedConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		BufferSize:        1000,
	}
}

// TradeMessage is one trade on the wire.
// Prices and quantities arrive as decimal strings.
type TradeMessage struct {
	Symbol    string          `json:"s"`
	Timestamp int64           `json:"t"`
	Price     decimal.Decimal `json:"p"`
	Quantity  decimal.Decimal `json:"q"`
	Seq       *int64          `json:"n,omitempty"`
}

// subscribeRequest is sent after every (re)connect.
type subscribeRequest struct {
	Op      string   `json:"op"`
	Symbols []string `json:"symbols"`
}

// ParseTrades decodes a single trade object or an array of them.
func ParseTrades(data []byte) ([]TradeMessage, error) {
	var msgs []TradeMessage
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &msgs); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTrade, err)
		}
		return msgs, nil
	}

	var m TradeMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTrade, err)
	}
	return append(msgs, m), nil
}

// Transaction validates m and converts it. Seq is zero unless the message carries one.
func (m TradeMessage) Transaction() (domain.Transaction, error) {
	if m.Symbol == "" {
		return domain.Transaction{}, fmt.Errorf("%w: empty symbol", ErrInvalidTrade)
	}
	if m.Timestamp <= 0 {
		return domain.Transaction{}, fmt.Errorf("%w: timestamp %d", ErrInvalidTrade, m.Timestamp)
	}
	if !m.Price.IsPositive() {
		return domain.Transaction{}, fmt.Errorf("%w: price %s", ErrInvalidTrade, m.Price)
	}
	if m.Quantity.IsNegative() || !m.Quantity.IsInteger() || m.Quantity.GreaterThan(decimal.NewFromInt(math.MaxUint32)) {
		return domain.Transaction{}, fmt.Errorf("%w: quantity %s", ErrInvalidTrade, m.Quantity)
	}

	tx := domain.Transaction{
		Symbol:    m.Symbol,
		Timestamp: m.Timestamp,
		Price:     m.Price.InexactFloat64(),
		Size:      uint32(m.Quantity.IntPart()),
	}
	if m.Seq != nil {
		tx.Seq = *m.Seq
	}
	return tx, nil
}

// seqCursor numbers trades that share a timestamp in arrival order.
type seqCursor struct {
	timestamp int64
	seq       int64
}

// TradeFeed streams trades from a websocket endpoint.
// It reconnects with exponential backoff and resubscribes after every reconnect.
type TradeFeed struct {
	endpoint string
	symbols  []string
	config   FeedConfig
	logger   *log.Logger

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	trades  chan domain.Transaction
	cursors map[string]seqCursor // only touched by readLoop

	// done signals shutdown
	done chan struct{}
	wg   sync.WaitGroup

	// reconnecting indicates reconnection in progress
	reconnecting atomic.Bool
}

// NewTradeFeed connects to endpoint and subscribes to symbols.
// An empty symbols list subscribes to everything the endpoint sends.
func NewTradeFeed(ctx context.Context, endpoint string, symbols []string, config *FeedConfig, logger *log.Logger) (*TradeFeed, error) {
	cfg := DefaultFeedConfig()
	if config != nil {
		cfg = *config
	}
	if logger == nil {
		logger = log.Default()
	}

	f := &TradeFeed{
		endpoint: endpoint,
		symbols:  symbols,
		config:   cfg,
		logger:   logger,
		trades:   make(chan domain.Transaction, cfg.BufferSize),
		cursors:  make(map[string]seqCursor),
		done:     make(chan struct{}),
	}

	if err := f.connect(ctx); err != nil {
		return nil, err
	}

	// Start reader goroutine
	f.wg.Add(1)
	go f.readLoop()

	// Start ping goroutine
	f.wg.Add(1)
	go f.pingLoop()

	return f, nil
}

// Trades returns the trade stream. It is closed by Close.
func (f *TradeFeed) Trades() <-chan domain.Transaction {
	return f.trades
}

// connect establishes the connection and sends the subscription.
func (f *TradeFeed) connect(ctx context.Context) error {
	f.connMu.Lock()
	defer f.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, f.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}
	if f.closed.Load() {
		conn.Close()
		return errFeedClosed
	}

	if len(f.symbols) > 0 {
		conn.SetWriteDeadline(time.Now().Add(f.config.WriteTimeout))
		if err := conn.WriteJSON(subscribeRequest{Op: "subscribe", Symbols: f.symbols}); err != nil {
			conn.Close()
			return fmt.Errorf("subscribe: %w", err)
		}
	}

	f.conn = conn
	return nil
}

// Close closes the connection and the trade stream.
func (f *TradeFeed) Close() error {
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
	close(f.trades)
	return nil
}

// readLoop reads messages and forwards decoded trades.
func (f *TradeFeed) readLoop() {
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
			observability.RecordFeedError("read")

			// Connection error - attempt reconnect with exponential backoff
			if !f.reconnecting.Swap(true) {
				f.wg.Add(1)
				go f.reconnect(conn, reconnectDelay)
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

		// Reset delay on successful read
		reconnectDelay = f.config.ReconnectDelay

		f.handleMessage(message)
	}
}

// reconnect replaces a failed connection after delay.
func (f *TradeFeed) reconnect(failed *websocket.Conn, delay time.Duration) {
	defer f.wg.Done()
	defer f.reconnecting.Store(false)

	select {
	case <-f.done:
		return
	case <-time.After(delay):
	}

	f.connMu.Lock()
	if f.conn == failed {
		f.conn.Close()
		f.conn = nil
	}
	f.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := f.connect(ctx); err != nil {
		// Reconnect failed, will retry on next read error
		f.logger.Printf("[feed] Reconnect to %s failed: %v", f.endpoint, err)
		observability.RecordFeedError("reconnect")
		return
	}
	observability.DefaultMetrics.FeedReconnects.Inc()
	f.logger.Printf("[feed] Reconnected to %s", f.endpoint)
}

// handleMessage decodes one frame and forwards its trades.
func (f *TradeFeed) handleMessage(message []byte) {
	msgs, err := ParseTrades(message)
	if err != nil {
		observability.RecordFeedError("decode")
		return
	}

	for _, m := range msgs {
		tx, err := m.Transaction()
		if err != nil {
			observability.RecordFeedError("invalid")
			continue
		}
		if m.Seq == nil {
			tx.Seq = f.nextSeq(tx.Symbol, tx.Timestamp)
		}
		observability.RecordTradesReceived(tx.Symbol, 1)

		select {
		case f.trades <- tx:
		case <-f.done:
			return
		}
	}
}

// nextSeq returns 0 for a new timestamp and counts up while it repeats.
func (f *TradeFeed) nextSeq(symbol string, timestamp int64) int64 {
	c, ok := f.cursors[symbol]
	if ok && c.timestamp == timestamp {
		c.seq++
	} else {
		c = seqCursor{timestamp: timestamp}
	}
	f.cursors[symbol] = c
	return c.seq
}

// pingLoop sends periodic ping frames to keep connection alive.
func (f *TradeFeed) pingLoop() {
	defer f.wg.Done()

	ticker := time.NewTicker(f.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-f.done:
			return
		case <-ticker.C:
			f.connMu.Lock()
			if f.conn != nil {
				f.conn.SetWriteDeadline(time.Now().Add(f.config.WriteTimeout))
				// A dead connection surfaces as a read error
				_ = f.conn.WriteMessage(websocket.PingMessage, nil)
			}
			f.connMu.Unlock()
		}
	}
}
