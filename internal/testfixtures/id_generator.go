package testfixtures

import (
	"fmt"
	"sync/atomic"
)

// IDGenerator hands out reservation, series and audit ids such as "res-0001".
// Zero padding keeps ids in creation order when sorted as strings.
type IDGenerator struct {
	prefix string
	issued atomic.Uint64
}

func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix}
}

func (g *IDGenerator) Next() string {
	return fmt.Sprintf("%s-%04d", g.prefix, g.issued.Add(1))
}

// NextFunc is passed to services as their id source. A nil generator yields
// empty ids.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}

// Issued counts ids handed out so far.
func (g *IDGenerator) Issued() uint64 {
	return g.issued.Load()
}
