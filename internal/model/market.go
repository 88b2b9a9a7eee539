package model

import "time"

// Candle represents a single OHLC bar for one granularity bucket.
type Candle struct {
	Epoch int64   `json:"epoch"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// Time returns the bucket start time in UTC.
func (c Candle) Time() time.Time {
	return time.Unix(c.Epoch, 0).UTC()
}
