package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/JoshPattman/cvquestions/datamodels"
)

// ResultsKey is the storage key holding the last successful generation.
const ResultsKey = "generatedQuestions"

var (
	// ErrNoResults is returned by Load when nothing has been saved.
	ErrNoResults = errors.New("no stored results")
	// ErrCorruptResults is wrapped by Load when the stored value is not a JSON array of results.
	ErrCorruptResults = errors.New("stored results are corrupt")
)

// GenerationResultDTO is the persisted and wire shape of a GenerationResult.
type GenerationResultDTO struct {
	Docx string `json:"docx"`
	PDF  string `json:"pdf"`
}

// ResultsStore persists the generated results list under ResultsKey.
type ResultsStore struct {
	kv KVStore
}

// NewResultsStore wraps kv.
func NewResultsStore(kv KVStore) *ResultsStore {
	return &ResultsStore{kv: kv}
}

// Save replaces the stored list with results.
func (rs *ResultsStore) Save(results []datamodels.GenerationResult) error {
	dtos := make([]GenerationResultDTO, len(results))
	for i, r := range results {
		dtos[i] = GenerationResultDTO(r)
	}
	data, err := json.Marshal(dtos)
	if err != nil {
		return err
	}
	return rs.kv.Set(ResultsKey, string(data))
}

// Load returns the stored list, ErrNoResults if nothing was stored, or an error wrapping
// ErrCorruptResults if the stored value is not a JSON array of results.
func (rs *ResultsStore) Load() ([]datamodels.GenerationResult, error) {
	raw, ok, err := rs.kv.Get(ResultsKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoResults
	}
	var dtos []GenerationResultDTO
	if err := json.Unmarshal([]byte(raw), &dtos); err != nil {
		return nil, errors.Join(ErrCorruptResults, fmt.Errorf("decode %s: %w", ResultsKey, err))
	}
	if dtos == nil {
		return nil, fmt.Errorf("%w: %s is null", ErrCorruptResults, ResultsKey)
	}
	results := make([]datamodels.GenerationResult, len(dtos))
	for i, dto := range dtos {
		results[i] = datamodels.GenerationResult(dto)
	}
	return results, nil
}

// Clear removes the stored list.
func (rs *ResultsStore) Clear() error {
	return rs.kv.Remove(ResultsKey)
}
