package repositories

import (
	"sort"

	"tipsvendor/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerPredictionRepository implements PredictionRepository using BadgerDB
type BadgerPredictionRepository struct {
	predictions collection[models.Prediction]
}

// NewBadgerPredictionRepository creates a new BadgerPredictionRepository
func NewBadgerPredictionRepository(db *badger.DB) *BadgerPredictionRepository {
	return &BadgerPredictionRepository{
		predictions: collection[models.Prediction]{
			db:     db,
			prefix: PredictionKeyPrefix,
			seqKey: PredictionSeqKey,
			id:     func(p *models.Prediction) int { return p.ID },
			setID:  func(p *models.Prediction, id int) { p.ID = id },
		},
	}
}

func (r *BadgerPredictionRepository) Create(prediction *models.Prediction) error {
	return r.predictions.update(func(txn *badger.Txn) error {
		return r.predictions.insert(txn, prediction)
	})
}

func (r *BadgerPredictionRepository) GetByID(id int) (*models.Prediction, error) {
	var prediction *models.Prediction
	err := r.predictions.view(func(txn *badger.Txn) error {
		var err error
		prediction, err = r.predictions.get(txn, id)
		return err
	})
	return prediction, err
}

// List returns matching predictions ordered by kickoff, latest first.
func (r *BadgerPredictionRepository) List(filter PredictionFilter) ([]*models.Prediction, error) {
	var predictions []*models.Prediction
	err := r.predictions.view(func(txn *badger.Txn) error {
		var err error
		predictions, err = r.predictions.scan(txn, true, 0, 0, filter.match)
		return err
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(predictions, func(i, j int) bool {
		return predictions[i].KickoffAt.After(predictions[j].KickoffAt)
	})
	if filter.Limit > 0 && len(predictions) > filter.Limit {
		predictions = predictions[:filter.Limit]
	}
	return predictions, nil
}

func (r *BadgerPredictionRepository) Update(prediction *models.Prediction) error {
	return r.predictions.update(func(txn *badger.Txn) error {
		return r.predictions.replace(txn, prediction)
	})
}

func (r *BadgerPredictionRepository) Delete(id int) error {
	return r.predictions.update(func(txn *badger.Txn) error {
		return r.predictions.remove(txn, id)
	})
}

func (f PredictionFilter) match(p *models.Prediction) bool {
	if f.Plan != "" && p.Plan != f.Plan {
		return false
	}
	if !f.From.IsZero() && p.KickoffAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !p.KickoffAt.Before(f.To) {
		return false
	}
	return true
}
