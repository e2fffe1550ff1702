// internal/workers/research/research-business/models.go
package researchbusiness

import "business-research/internal/models"

type Input struct {
	BusinessName string `json:"businessName"`
	Location     string `json:"location"`
}

type Output struct {
	Found     bool                   `json:"found"`
	Record    *models.BusinessRecord `json:"record"`
	Populated int                    `json:"populated"`
}
