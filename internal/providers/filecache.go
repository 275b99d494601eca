package providers

import "sync"

// UploadCache remembers provider-side file IDs for papers that were already
// uploaded, keyed by content fingerprint, so re-running a batch does not
// upload the same bytes twice. Each provider owns its own cache; there is no
// global state.
type UploadCache struct {
	mu  sync.Mutex
	ids map[string]string
}

func NewUploadCache() *UploadCache {
	return &UploadCache{ids: map[string]string{}}
}

func (c *UploadCache) Get(fingerprint string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.ids[fingerprint]
	return id, ok
}

func (c *UploadCache) Put(fingerprint, fileID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids[fingerprint] = fileID
}
