package repository

import (
	"context"
	"sync"

	"github.com/bankrag/bankrag/pkg/model"
)

// Memory keeps chunks in process memory
type Memory struct {
	mu     sync.RWMutex
	chunks map[model.ChunkID]*model.Chunk
	order  []model.ChunkID
}

func NewMemory() *Memory {
	return &Memory{
		chunks: make(map[model.ChunkID]*model.Chunk),
	}
}

func (m *Memory) PutChunks(ctx context.Context, chunks []*model.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range chunks {
		if _, ok := m.chunks[c.ID]; !ok {
			m.order = append(m.order, c.ID)
		}
		copied := *c
		m.chunks[c.ID] = &copied
	}
	return nil
}

func (m *Memory) SearchChunks(ctx context.Context, embedding []float32, limit int, category model.Category) ([]*model.Fragment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var fragments []*model.Fragment
	for _, id := range m.order {
		c := m.chunks[id]
		if category.IsSet() && c.Category != category {
			continue
		}
		fragments = append(fragments, &model.Fragment{
			Text:     c.Content,
			Category: c.Category,
			Source:   c.Source,
			Score:    cosineSimilarity(embedding, c.Embedding),
		})
	}

	return topK(fragments, limit), nil
}

func (m *Memory) DeleteSource(ctx context.Context, source string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.order[:0]
	for _, id := range m.order {
		if m.chunks[id].Source == source {
			delete(m.chunks, id)
			continue
		}
		kept = append(kept, id)
	}
	m.order = kept
	return nil
}

func (m *Memory) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.chunks = make(map[model.ChunkID]*model.Chunk)
	m.order = nil
	return nil
}

// Len returns the number of stored chunks
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks)
}
