package strategy

import (
	"errors"

	"binary-window-lab/internal/domain"
)

// Factory errors.
var (
	ErrUnknownStrategyType  = errors.New("unknown strategy type")
	ErrMissingMaxEntryPrice = errors.New("CHEAP_SIDE requires MaxEntryPrice")
	ErrMissingMinEdge       = errors.New("MOMENTUM requires MinEdge")
)

const defaultOrderSize = 10.0

// FromConfig returns a Factory producing strategies per the config.
// Validates required parameters per strategy type and returns clear
// errors for missing ones.
func FromConfig(cfg domain.StrategyConfig) (Factory, error) {
	size := defaultOrderSize
	if cfg.OrderSize != nil {
		size = *cfg.OrderSize
	}

	switch cfg.StrategyType {
	case domain.StrategyTypeCheapSide:
		if cfg.MaxEntryPrice == nil {
			return nil, ErrMissingMaxEntryPrice
		}
		maxEntry := *cfg.MaxEntryPrice
		return func() Strategy {
			return NewCheapSide(maxEntry, size)
		}, nil

	case domain.StrategyTypeMomentum:
		if cfg.MinEdge == nil {
			return nil, ErrMissingMinEdge
		}
		minEdge := *cfg.MinEdge
		return func() Strategy {
			return NewMomentum(minEdge, size)
		}, nil

	default:
		return nil, ErrUnknownStrategyType
	}
}
