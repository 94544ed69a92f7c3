package models

// Requests for risk HTTP endpoints. Defined in domain for consistency and reuse.

type RiskRequest struct {
	Ticker string `query:"ticker" json:"ticker" validate:"required,max=12"`
}

type RiskHistoryRequest struct {
	Ticker string `query:"ticker" json:"ticker" validate:"required,max=12"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	Limit  int    `query:"limit" json:"limit" default:"500" validate:"gte=1,lte=10000"`
}

type SnapshotsRequest struct {
	Ticker string `query:"ticker" json:"ticker" validate:"required,max=12"`
	Limit  int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=1000"`
}

type CollectRequest struct {
	Ticker string `json:"ticker" validate:"required,max=12"`
}
