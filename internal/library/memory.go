package library

import (
	"context"
	"sync"
	"time"

	"github.com/acm19/jpegtune/internal/compression"
	"github.com/google/uuid"
)

// MemoryLibrary keeps assets in memory.
type MemoryLibrary struct {
	mu     sync.RWMutex
	codec  compression.Codec
	now    func() time.Time
	assets map[string]memoryAsset
	order  []string
}

type memoryAsset struct {
	asset Asset
	data  []byte
}

// NewMemoryLibrary creates an empty MemoryLibrary.
func NewMemoryLibrary(codec compression.Codec) *MemoryLibrary {
	if codec == nil {
		codec = compression.NewCodec()
	}
	return &MemoryLibrary{
		codec:  codec,
		now:    time.Now,
		assets: make(map[string]memoryAsset),
	}
}

// Save stores the encoded bitmap under a random ID.
func (l *MemoryLibrary) Save(ctx context.Context, bitmap compression.Bitmap) (Asset, error) {
	if err := ctx.Err(); err != nil {
		return Asset{}, &SaveError{Library: "memory", Err: err}
	}

	data, err := encodeAsset(l.codec, bitmap)
	if err != nil {
		return Asset{}, &SaveError{Library: "memory", Err: err}
	}

	id := uuid.NewString()
	asset := Asset{
		ID:       id,
		Location: "memory://" + id,
		Size:     len(data),
		SavedAt:  l.now(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.assets[id] = memoryAsset{asset: asset, data: data}
	l.order = append(l.order, id)
	return asset, nil
}

// Assets returns all saved assets in the order they were saved.
func (l *MemoryLibrary) Assets() []Asset {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Asset, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.assets[id].asset)
	}
	return out
}

// Data returns a copy of an asset's JPEG bytes.
func (l *MemoryLibrary) Data(id string) ([]byte, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	a, ok := l.assets[id]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(a.data))
	copy(out, a.data)
	return out, true
}
