// internal/models/business.go
package models

import (
	"strings"
	"time"
)

// SearchQuery is the free-text input for one resolution.
type SearchQuery struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

// Text joins name and location the way the search endpoint expects them.
func (q SearchQuery) Text() string {
	return strings.TrimSpace(strings.TrimSpace(q.Name) + " " + strings.TrimSpace(q.Location))
}

// BusinessCandidate is one unresolved hit from the search step. Only OpaqueID
// is guaranteed to be unique across candidates.
type BusinessCandidate struct {
	Name        string   `json:"name"`
	OpaqueID    string   `json:"opaqueId"`
	Address     *string  `json:"address,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	ReviewCount *int     `json:"reviewCount,omitempty"`
	Website     *string  `json:"website,omitempty"`
	Phone       *string  `json:"phone,omitempty"`
	Category    *string  `json:"category,omitempty"`
}

type AddressQuality string

const (
	AddressQualityGood    AddressQuality = "good"
	AddressQualityPoor    AddressQuality = "poor"
	AddressQualityUnknown AddressQuality = "unknown"
)

// ResolvedIdentity is the candidate chosen to represent the business plus its
// derived identifiers. It is never mutated after resolution.
type ResolvedIdentity struct {
	OpaqueID       string         `json:"opaqueId"`
	TranslatedID   string         `json:"translatedId"`
	Name           string         `json:"name"`
	Address        string         `json:"address,omitempty"`
	AddressQuality AddressQuality `json:"addressQuality"`
	Phone          string         `json:"phone,omitempty"`
	Website        string         `json:"website,omitempty"`
	Domain         string         `json:"domain,omitempty"`
	Category       string         `json:"category,omitempty"`
	Rating         *float64       `json:"rating,omitempty"`
	ReviewCount    *int           `json:"reviewCount,omitempty"`
}

type Branch string

const (
	BranchDetail  Branch = "detail"
	BranchContent Branch = "content"
	BranchReviews Branch = "reviews"
)

// Branches lists the aggregation branches in a stable order.
var Branches = []Branch{BranchDetail, BranchContent, BranchReviews}

// BranchStatus is the outcome of one aggregation branch. Skipped marks a
// branch whose data was dropped from the delivered record on purpose.
type BranchStatus struct {
	Succeeded  bool   `json:"succeeded"`
	Skipped    bool   `json:"skipped,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"durationMs"`
}

// BusinessRecord is the merged research result. Identity is always set; the
// three data products are independently optional.
type BusinessRecord struct {
	RunID     string                  `json:"runId"`
	Identity  *ResolvedIdentity       `json:"identity"`
	Detail    map[string]interface{}  `json:"detail,omitempty"`
	Content   *string                 `json:"content,omitempty"`
	Reviews   *ReviewCollection       `json:"reviews,omitempty"`
	Branches  map[Branch]BranchStatus `json:"branches"`
	FetchedAt time.Time               `json:"fetchedAt"`
}

// Populated reports how many of the three data products are present.
func (r *BusinessRecord) Populated() int {
	n := 0
	if r.Detail != nil {
		n++
	}
	if r.Content != nil {
		n++
	}
	if r.Reviews != nil {
		n++
	}
	return n
}
