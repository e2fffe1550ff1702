// internal/workers/research/research-batch/models.go
package researchbatch

import (
	"business-research/internal/models"
	"business-research/internal/research"
)

type Input struct {
	Businesses []models.SearchQuery `json:"businesses"`
}

type Output struct {
	BatchID     string                 `json:"batchId"`
	Results     []research.BatchResult `json:"results"`
	FoundCount  int                    `json:"foundCount"`
	FailedCount int                    `json:"failedCount"`
}
