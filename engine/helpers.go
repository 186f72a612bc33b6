package engine

import "github.com/raunit-dev/morpho-on-solana/market"

// loadMarket fetches the protocol singleton and a market together, since
// every gated operation needs both to evaluate the pause hierarchy.
func (e *Engine) loadMarket(marketID [32]byte) (*market.ProtocolState, *market.Market, error) {
	if e.state == nil {
		return nil, nil, ErrNilState
	}
	protocol, err := e.state.GetProtocolState()
	if err != nil {
		return nil, nil, err
	}
	m, err := e.state.GetMarket(marketID)
	if err != nil {
		return nil, nil, err
	}
	if m == nil {
		return nil, nil, ErrMarketNotFound
	}
	return protocol, m, nil
}

// loadPosition fetches a position, creating a fresh zero-value one if the
// host has none recorded yet.
func (e *Engine) loadPosition(marketID, owner [32]byte) (*market.Position, error) {
	pos, err := e.state.GetPosition(marketID, owner)
	if err != nil {
		return nil, err
	}
	if pos == nil {
		pos = market.NewPosition(marketID, owner)
	}
	return pos, nil
}
