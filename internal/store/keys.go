package store

import (
	"sync"

	"github.com/listenupapp/skipper/internal/domain"
)

const segmentPrefix = "segment:"

// keyPool provides reusable byte slices for building database keys.
var keyPool = sync.Pool{
	New: func() any {
		return make([]byte, 0, 128)
	},
}

// segmentKey builds "segment:{mode}:{episodeID}". Callers must release it.
func segmentKey(episodeID string, mode domain.Mode) []byte {
	buf, _ := keyPool.Get().([]byte)
	buf = buf[:0]
	buf = append(buf, segmentPrefix...)
	buf = append(buf, mode...)
	buf = append(buf, ':')
	buf = append(buf, episodeID...)
	return buf
}

// modePrefix builds "segment:{mode}:". Callers must release it.
func modePrefix(mode domain.Mode) []byte {
	buf, _ := keyPool.Get().([]byte)
	buf = buf[:0]
	buf = append(buf, segmentPrefix...)
	buf = append(buf, mode...)
	buf = append(buf, ':')
	return buf
}

// releaseKey returns a key buffer to the pool. The slice must not be used
// afterwards.
func releaseKey(key []byte) {
	if cap(key) <= 1024 {
		keyPool.Put(key[:0])
	}
}
