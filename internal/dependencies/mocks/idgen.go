package mocks

import (
	"fmt"
	"sync"

	"github.com/mcoot/dartleague/internal/dependencies/idgen"
)

// MockIDGenerator hands out queued values first, then predictable
// sequential ones ("id-1", "token-1", ...)
type MockIDGenerator struct {
	mu sync.Mutex

	IDResults    []string
	TokenResults []string

	idCount    int
	tokenCount int
}

// Ensure MockIDGenerator implements Generator
var _ idgen.Generator = (*MockIDGenerator)(nil)

// NewMockIDGenerator creates a new MockIDGenerator
func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (g *MockIDGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.idCount++
	if len(g.IDResults) > 0 {
		id := g.IDResults[0]
		g.IDResults = g.IDResults[1:]
		return id
	}
	return fmt.Sprintf("id-%d", g.idCount)
}

func (g *MockIDGenerator) NewToken() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tokenCount++
	if len(g.TokenResults) > 0 {
		tok := g.TokenResults[0]
		g.TokenResults = g.TokenResults[1:]
		return tok
	}
	return fmt.Sprintf("token-%d", g.tokenCount)
}

// QueueIDs adds values to the NewID result queue
func (g *MockIDGenerator) QueueIDs(ids ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.IDResults = append(g.IDResults, ids...)
}

// QueueTokens adds values to the NewToken result queue
func (g *MockIDGenerator) QueueTokens(tokens ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.TokenResults = append(g.TokenResults, tokens...)
}
