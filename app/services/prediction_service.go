package services

import (
	"time"

	"github.com/pkg/errors"

	"tipsvendor/app/models"
	"tipsvendor/app/repositories"
)

// EventPrediction is the live feed event type for new tips.
const EventPrediction = "prediction"

// Broadcaster pushes events to live clients.
type Broadcaster interface {
	Broadcast(eventType string, data any) error
}

// TipBoard is what a visitor may see on the tips page.
type TipBoard struct {
	Free []*models.Prediction `json:"free"`
	VIP  []*models.Prediction `json:"vip"`
	// VIPLocked is set when VIP tips exist but the viewer cannot see them.
	VIPLocked bool `json:"vip_locked"`
	VIPCount  int  `json:"vip_count"`
}

// PredictionService manages tips and decides who may see them.
type PredictionService struct {
	predictions repositories.PredictionRepository
	subs        *SubscriptionService
	feed        Broadcaster
	now         func() time.Time
}

func NewPredictionService(predictions repositories.PredictionRepository, subs *SubscriptionService, feed Broadcaster) *PredictionService {
	return &PredictionService{predictions: predictions, subs: subs, feed: feed, now: time.Now}
}

// startOfDay truncates t to midnight in its own location.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Board returns today's and upcoming tips. VIP tips are filled in only for
// admins and users whose subscription is still active after a check.
func (s *PredictionService) Board(viewer *models.User) (*TipBoard, error) {
	from := startOfDay(s.now())
	upcoming, err := s.predictions.List(repositories.PredictionFilter{From: from})
	if err != nil {
		return nil, err
	}

	canSeeVIP := false
	if viewer != nil {
		if err := s.subs.Check(viewer); err != nil {
			return nil, err
		}
		canSeeVIP = viewer.IsVIP(s.now())
	}

	board := &TipBoard{}
	// soonest kickoff first on the board
	for i := len(upcoming) - 1; i >= 0; i-- {
		p := upcoming[i]
		if !p.IsVIP() {
			board.Free = append(board.Free, p)
			continue
		}
		board.VIPCount++
		if canSeeVIP {
			board.VIP = append(board.VIP, p)
		}
	}
	board.VIPLocked = board.VIPCount > 0 && !canSeeVIP
	return board, nil
}

// Results returns the most recently kicked-off settled tips.
func (s *PredictionService) Results(limit int) ([]*models.Prediction, error) {
	all, err := s.predictions.List(repositories.PredictionFilter{To: s.now()})
	if err != nil {
		return nil, err
	}
	var settled []*models.Prediction
	for _, p := range all {
		if p.IsSettled() {
			settled = append(settled, p)
			if limit > 0 && len(settled) == limit {
				break
			}
		}
	}
	return settled, nil
}

// Stats summarises every tip on record.
func (s *PredictionService) Stats() (models.PredictionStats, error) {
	all, err := s.predictions.List(repositories.PredictionFilter{})
	if err != nil {
		return models.PredictionStats{}, err
	}
	return models.ComputeStats(all), nil
}

// List returns tips for the admin screens.
func (s *PredictionService) List(filter repositories.PredictionFilter) ([]*models.Prediction, error) {
	return s.predictions.List(filter)
}

func (s *PredictionService) Get(id int) (*models.Prediction, error) {
	return s.predictions.GetByID(id)
}

// Create stores a new tip. Free tips are pushed to the live feed.
func (s *PredictionService) Create(p *models.Prediction) error {
	p.ID = 0
	p.CreatedAt = s.now()
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.predictions.Create(p); err != nil {
		return errors.Wrap(err, "creating prediction")
	}
	if !p.IsVIP() && s.feed != nil {
		// the tip is saved; a failed push only affects open pages
		_ = s.feed.Broadcast(EventPrediction, p)
	}
	return nil
}

func (s *PredictionService) Update(p *models.Prediction) error {
	existing, err := s.predictions.GetByID(p.ID)
	if err != nil {
		return err
	}
	p.CreatedAt = existing.CreatedAt
	if err := p.Validate(); err != nil {
		return err
	}
	return s.predictions.Update(p)
}

// Settle records the outcome of a tip.
func (s *PredictionService) Settle(id int, result string) (*models.Prediction, error) {
	switch result {
	case models.ResultWon, models.ResultLost, models.ResultVoid, models.ResultPending:
	default:
		return nil, fieldError("result", "result must be one of won, lost, void or pending")
	}
	p, err := s.predictions.GetByID(id)
	if err != nil {
		return nil, err
	}
	p.Result = result
	if err := s.predictions.Update(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PredictionService) Delete(id int) error {
	return s.predictions.Delete(id)
}
