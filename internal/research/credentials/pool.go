// Package credentials holds the round-robin pool of interchangeable oracle
// credentials shared by every concurrent research pipeline.
package credentials

import (
	"errors"
	"sync"

	"business-research/internal/common/metrics"
)

var ErrEmptyPool = errors.New("credential pool requires at least one credential")

// Credential is one opaque secret and its position in the pool.
type Credential struct {
	Index  int
	Secret string
}

// Stat is the per-credential usage snapshot returned by Stats.
type Stat struct {
	Index      int `json:"index"`
	Dispatched int `json:"dispatched"`
	Exhausted  int `json:"exhausted"`
}

// Pool rotates before use: Next advances the cursor before the caller has
// touched the credential, so concurrent callers spread across credentials.
// The cursor is the only mutable state and is guarded by mu; mu is never held
// across I/O.
type Pool struct {
	mu          sync.Mutex
	credentials []Credential
	cursor      int
	dispatched  []int
	exhausted   []int
}

func NewPool(secrets []string) (*Pool, error) {
	if len(secrets) == 0 {
		return nil, ErrEmptyPool
	}
	creds := make([]Credential, len(secrets))
	for i, s := range secrets {
		creds[i] = Credential{Index: i, Secret: s}
	}
	return &Pool{
		credentials: creds,
		dispatched:  make([]int, len(creds)),
		exhausted:   make([]int, len(creds)),
	}, nil
}

// Size is the number of credentials, and so the attempt bound for one
// logical oracle call.
func (p *Pool) Size() int {
	return len(p.credentials)
}

// Next returns the credential under the cursor and advances it.
func (p *Pool) Next() Credential {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.advanceLocked()
}

// ReportExhausted records that c hit a rate limit and hands back the next
// credential in rotation.
func (p *Pool) ReportExhausted(c Credential) Credential {
	metrics.CredentialRotations.Inc()

	p.mu.Lock()
	defer p.mu.Unlock()
	if c.Index >= 0 && c.Index < len(p.exhausted) {
		p.exhausted[c.Index]++
	}
	return p.advanceLocked()
}

func (p *Pool) advanceLocked() Credential {
	c := p.credentials[p.cursor]
	p.dispatched[p.cursor]++
	p.cursor = (p.cursor + 1) % len(p.credentials)
	return c
}

func (p *Pool) Stats() []Stat {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Stat, len(p.credentials))
	for i := range p.credentials {
		out[i] = Stat{Index: i, Dispatched: p.dispatched[i], Exhausted: p.exhausted[i]}
	}
	return out
}
