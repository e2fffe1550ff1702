// internal/workers/research/resolve-business/models.go
package resolvebusiness

import "business-research/internal/models"

type Input struct {
	BusinessName string `json:"businessName"`
	Location     string `json:"location"`
}

type Output struct {
	Found    bool                     `json:"found"`
	Identity *models.ResolvedIdentity `json:"identity"`
}
