package world

import (
	"slices"
	"sync"
)

// ChunkStore is the loaded set: every chunk in the map is loaded, nothing
// else is. The lock guards the map only, never chunk contents.
type ChunkStore struct {
	chunks   map[ChunkCoord]*Chunk
	mu       sync.RWMutex
	modCount uint64 // increases on any chunk add/remove
	size     int
}

// NewChunkStore returns an empty store for chunks of the given size.
func NewChunkStore(size int) *ChunkStore {
	return &ChunkStore{
		chunks: make(map[ChunkCoord]*Chunk),
		size:   size,
	}
}

// GetChunk returns the chunk at c. When it doesn't exist and create is
// true an empty, unpopulated chunk is registered.
func (cs *ChunkStore) GetChunk(c ChunkCoord, create bool) *Chunk {
	cs.mu.RLock()
	chunk, exists := cs.chunks[c]
	cs.mu.RUnlock()
	if exists || !create {
		return chunk
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()
	// another goroutine might have created it while we waited for the lock
	if existing, ok := cs.chunks[c]; ok {
		return existing
	}
	chunk = NewChunk(c, cs.size)
	cs.chunks[c] = chunk
	cs.modCount++
	return chunk
}

// Has reports whether c is loaded.
func (cs *ChunkStore) Has(c ChunkCoord) bool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	_, ok := cs.chunks[c]
	return ok
}

// Len is the number of loaded chunks.
func (cs *ChunkStore) Len() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.chunks)
}

// GetAllChunks returns the loaded chunks ordered by coordinate.
func (cs *ChunkStore) GetAllChunks() []*Chunk {
	cs.mu.RLock()
	chunks := make([]*Chunk, 0, len(cs.chunks))
	for _, ch := range cs.chunks {
		chunks = append(chunks, ch)
	}
	cs.mu.RUnlock()
	slices.SortFunc(chunks, func(a, b *Chunk) int { return a.Coord().Compare(b.Coord()) })
	return chunks
}

// Evict removes every chunk not in keep and returns them ordered by
// coordinate. Callers retire the returned chunks outside the store lock.
func (cs *ChunkStore) Evict(keep map[ChunkCoord]struct{}) []*Chunk {
	cs.mu.Lock()
	var removed []*Chunk
	for coord, ch := range cs.chunks {
		if _, ok := keep[coord]; ok {
			continue
		}
		delete(cs.chunks, coord)
		removed = append(removed, ch)
	}
	if len(removed) > 0 {
		cs.modCount++
	}
	cs.mu.Unlock()
	slices.SortFunc(removed, func(a, b *Chunk) int { return a.Coord().Compare(b.Coord()) })
	return removed
}

// GetModCount returns the current modification count of the chunk map.
func (cs *ChunkStore) GetModCount() uint64 {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.modCount
}
