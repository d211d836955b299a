package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Prediction plans
const (
	PlanFree = "free"
	PlanVIP  = "vip"
)

// Prediction results
const (
	ResultPending = "pending"
	ResultWon     = "won"
	ResultLost    = "lost"
	ResultVoid    = "void"
)

// Prediction is a single football tip.
type Prediction struct {
	ID         int             `json:"id"`
	League     string          `json:"league" validate:"required,max=80"`
	HomeTeam   string          `json:"home_team" validate:"required,max=80"`
	AwayTeam   string          `json:"away_team" validate:"required,max=80"`
	KickoffAt  time.Time       `json:"kickoff_at" validate:"required"`
	Tip        string          `json:"tip" validate:"required,max=60"`
	Odds       decimal.Decimal `json:"odds" validate:"-"`
	Confidence int             `json:"confidence" validate:"gte=0,lte=100"`
	Plan       string          `json:"plan" validate:"required,oneof=free vip"`
	Result     string          `json:"result" validate:"omitempty,oneof=pending won lost void"`
	Analysis   string          `json:"analysis,omitempty" validate:"max=2000"`
	CreatedAt  time.Time       `json:"created_at"`
}

var errOddsTooLow = errors.New("odds must be greater than 1")

func (p *Prediction) Validate() error {
	p.League = CleanString(p.League)
	p.HomeTeam = CleanString(p.HomeTeam)
	p.AwayTeam = CleanString(p.AwayTeam)
	p.Tip = CleanString(p.Tip)
	if p.Plan == "" {
		p.Plan = PlanFree
	}
	if p.Result == "" {
		p.Result = ResultPending
	}
	if err := ValidateStruct(p); err != nil {
		return err
	}
	if !p.Odds.GreaterThan(decimal.NewFromInt(1)) {
		return NewValidationError(errOddsTooLow, FieldError{Field: "odds", Error: errOddsTooLow.Error()})
	}
	return nil
}

// Fixture renders "Home vs Away".
func (p *Prediction) Fixture() string {
	return p.HomeTeam + " vs " + p.AwayTeam
}

func (p *Prediction) IsVIP() bool     { return p.Plan == PlanVIP }
func (p *Prediction) IsSettled() bool { return p.Result != "" && p.Result != ResultPending }

// PredictionStats summarises settled tips.
type PredictionStats struct {
	Total   int             `json:"total"`
	Won     int             `json:"won"`
	Lost    int             `json:"lost"`
	Void    int             `json:"void"`
	Pending int             `json:"pending"`
	WinRate decimal.Decimal `json:"win_rate"`
}

// ComputeStats counts results; WinRate is won/(won+lost) as a percentage.
func ComputeStats(preds []*Prediction) PredictionStats {
	var s PredictionStats
	for _, p := range preds {
		s.Total++
		switch p.Result {
		case ResultWon:
			s.Won++
		case ResultLost:
			s.Lost++
		case ResultVoid:
			s.Void++
		default:
			s.Pending++
		}
	}
	if decided := s.Won + s.Lost; decided > 0 {
		s.WinRate = decimal.NewFromInt(int64(s.Won)).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(decided))).
			Round(1)
	}
	return s
}
