package domain

// Action is a strategy's intended action for the current event.
type Action string

// Action constants.
const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionHold Action = "hold"
)

// Token identifies one of the two binary outcome tokens.
type Token string

// Token constants.
const (
	TokenUp   Token = "UP"
	TokenDown Token = "DOWN"
)

// Signal is a strategy's expressed trading intention for one event.
// Signals are ephemeral and never persisted. A signal without a
// recognized action or token reference is discarded by the evaluator.
type Signal struct {
	Action Action
	Token  Token
	Size   float64 // requested size in token units
	Price  float64 // reference price, 0 lets the simulator price the fill
	Reason string  // reason code recorded on the resulting trade

	// Diagnostic fields, carried for strategy debugging only.
	Confidence float64
	Note       string
}

// Valid reports whether the signal carries a recognized tradeable action
// and a token reference.
func (s Signal) Valid() bool {
	if s.Token != TokenUp && s.Token != TokenDown {
		return false
	}
	return s.Action == ActionBuy || s.Action == ActionSell
}
