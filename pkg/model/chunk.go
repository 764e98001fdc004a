package model

import (
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
)

// chunkNamespace seeds deterministic chunk IDs so re-ingesting a file overwrites its chunks.
var chunkNamespace = uuid.MustParse("6f1c9f0e-1b7a-4f55-9d0c-2b8f3a7c5e41")

type ChunkID string

// NewChunkID derives a stable ID from the source path and chunk position
func NewChunkID(source string, index int) ChunkID {
	return ChunkID(uuid.NewSHA1(chunkNamespace, []byte(fmt.Sprintf("%s#%d", source, index))).String())
}

// Document is a loaded source file before splitting
type Document struct {
	Source   string
	Category Category
	Content  string
}

// Chunk is a persisted fragment of a Document with its embedding
type Chunk struct {
	ID        ChunkID
	Source    string
	Category  Category
	Index     int
	Content   string
	Embedding firestore.Vector32

	CreatedAt time.Time
}

// Fragment is a chunk returned by retrieval, ordered by similarity
type Fragment struct {
	Text     string
	Category Category
	Source   string
	Score    float64
}
