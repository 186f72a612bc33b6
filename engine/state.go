package engine

import "github.com/raunit-dev/morpho-on-solana/market"

// State is the external persistence port the engine reads and writes
// through; hosts implement this against their own durable storage. Grounded
// on native/lending/engine.go's engineState interface.
type State interface {
	GetProtocolState() (*market.ProtocolState, error)
	PutProtocolState(*market.ProtocolState) error

	GetMarket(marketID [32]byte) (*market.Market, error)
	PutMarket(*market.Market) error

	GetPosition(marketID, owner [32]byte) (*market.Position, error)
	PutPosition(*market.Position) error

	GetAuthorization(authorizer, authorized [32]byte) (*market.Authorization, error)
	PutAuthorization(*market.Authorization) error
}
