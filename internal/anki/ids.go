package anki

import "sync"

const (
	DefaultModelID int64 = 1607392319
	DefaultDeckID  int64 = 2059400110
	// DefaultIDBase is the first note and card id, a millisecond timestamp
	// in 2023 so the ids sort like ones Anki assigns itself.
	DefaultIDBase int64 = 1700000000000
)

// IDAllocator hands out the numeric ids of a deck package.
type IDAllocator interface {
	ModelID() int64
	DeckID(name string) int64
	NextID() int64
}

// SequentialIDs allocates ids in order from fixed bases, so building the same
// input twice yields the same package.
type SequentialIDs struct {
	mu       sync.Mutex
	model    int64
	nextDeck int64
	next     int64
	decks    map[string]int64
}

func NewSequentialIDs(modelID, deckID, base int64) *SequentialIDs {
	if modelID == 0 {
		modelID = DefaultModelID
	}
	if deckID == 0 {
		deckID = DefaultDeckID
	}
	if base == 0 {
		base = DefaultIDBase
	}
	return &SequentialIDs{
		model:    modelID,
		nextDeck: deckID,
		next:     base,
		decks:    make(map[string]int64),
	}
}

func (s *SequentialIDs) ModelID() int64 { return s.model }

// DeckID returns the id of the named deck, allocating the next one on first use.
func (s *SequentialIDs) DeckID(name string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.decks[name]; ok {
		return id
	}
	id := s.nextDeck
	s.nextDeck++
	s.decks[name] = id
	return id
}

func (s *SequentialIDs) NextID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	return id
}
