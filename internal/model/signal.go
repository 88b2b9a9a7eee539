package model

// Direction is the recommended trade direction.
type Direction string

const (
	DirectionCall Direction = "CALL"
	DirectionPut  Direction = "PUT"
	DirectionNone Direction = "NONE"
)

// Outcome is the result of a single indicator vote.
type Outcome int

const (
	Neutral Outcome = iota
	Bullish
	Bearish
)

func (o Outcome) String() string {
	switch o {
	case Bullish:
		return "bullish"
	case Bearish:
		return "bearish"
	default:
		return "neutral"
	}
}

// Vote is one indicator's opinion plus the text explaining it.
type Vote struct {
	Outcome Outcome
	Text    string
}

// Rationale holds the explanation of each vote, always rendered in this order.
type Rationale struct {
	RSI  string `json:"rsi"`
	EMA  string `json:"ema"`
	MACD string `json:"macd"`
}

// Tally accumulates votes for one evaluation.
type Tally struct {
	Bullish   int
	Bearish   int
	Rationale Rationale
}

// Decision is the final output of the signal scorer.
type Decision struct {
	Signal      Direction
	Confidence  int
	Risky       bool
	Rationale   Rationale
	Price       float64
	Bullish     int
	Bearish     int
	Message     string
	RiskMessage string // empty unless Risky
}
