package surflux

import (
	"bytes"
	"fmt"
	"strconv"
)

// Number is a numeric wire field that the Surflux API may encode either as a
// JSON number or as a quoted decimal string (raw on-chain integer amounts
// exceed float precision in some upstream serializers).
type Number float64

// UnmarshalJSON accepts 123, 123.45, "123" and "123.45".
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("surflux: invalid numeric field %q: %w", data, err)
	}
	*n = Number(f)
	return nil
}

// Float returns the value as a float64.
func (n Number) Float() float64 { return float64(n) }

// PoolInfo describes one DeepBook pool as returned by the get_pools endpoint.
type PoolInfo struct {
	PoolID            string `json:"pool_id"`
	PoolName          string `json:"pool_name"`
	BaseAssetID       string `json:"base_asset_id"`
	BaseAssetSymbol   string `json:"base_asset_symbol"`
	BaseAssetName     string `json:"base_asset_name"`
	BaseAssetDecimals *int   `json:"base_asset_decimals"`
	QuoteAssetID      string `json:"quote_asset_id"`
	QuoteAssetSymbol  string `json:"quote_asset_symbol"`
	QuoteAssetName    string `json:"quote_asset_name"`
	QuoteAssetDecimal *int   `json:"quote_asset_decimals"`
}

// PriceLevel is one aggregated order-book level. Price and quantities are
// raw on-chain units; callers scale by the pool's token decimals.
type PriceLevel struct {
	Price         Number `json:"price"`
	Quantity      Number `json:"quantity"`
	TotalQuantity Number `json:"total_quantity"`
}

// OrderBook is the depth snapshot for a pool.
type OrderBook struct {
	Bids []PriceLevel `json:"bids"`
	Asks []PriceLevel `json:"asks"`
}

// Trade is one recent trade in a pool. Maker/taker are DeepBook balance
// manager object IDs, not wallet addresses.
type Trade struct {
	Price                 Number `json:"price"`
	BaseQuantity          Number `json:"base_quantity"`
	QuoteQuantity         Number `json:"quote_quantity"`
	MakerBalanceManagerID string `json:"maker_balance_manager_id"`
	TakerBalanceManagerID string `json:"taker_balance_manager_id"`
	Timestamp             int64  `json:"timestamp"`
}
