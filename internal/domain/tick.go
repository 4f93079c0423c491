package domain

// Canonical oracle topics. Ticks on any other topic are carried through
// the timeline with a raw tag.
const (
	TopicOracleSettlement = "oracle.settlement" // slow, authoritative feed
	TopicOracleReference  = "oracle.reference"  // fast, reference-only feed
)

// OracleTick is one observation from an oracle-tier price feed.
type OracleTick struct {
	Topic       string // feed topic, see Topic* constants
	Symbol      string
	TimestampMs int64
	Price       float64
}

// BookSnapshot is one order-book snapshot for a single outcome token.
// Label identifies the outcome side ("...down..." marks the down token).
type BookSnapshot struct {
	Symbol      string // market symbol, prefixed by the underlying symbol
	Label       string // outcome token label
	Epoch       string // optional epoch tag
	TimestampMs int64
	BestBid     float64
	BestAsk     float64
	BidSize     float64
	AskSize     float64
}

// ExchangeTick is one trade price observation from an external exchange.
type ExchangeTick struct {
	Exchange    string // exchange name, e.g. "binance"
	Symbol      string
	TimestampMs int64
	Price       float64
}
