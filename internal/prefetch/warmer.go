package prefetch

import (
	"context"
	"log"
	"sync"
)

// ImageLoader is the external collaborator that turns a URL into an
// on-screen-ready bitmap. The engine never inspects the result; it only
// cares that the bytes are warm.
type ImageLoader interface {
	Load(ctx context.Context, url string) error
}

// Warmer issues eager image loads for cards the user is about to see.
// Unlike Scheduler tasks, warms fire immediately: on a cursor advance
// the next cards are needed within the next interaction, so waiting for
// an idle slot would defeat the purpose.
type Warmer struct {
	cache  *Cache
	loader ImageLoader
	wg     sync.WaitGroup
}

// NewWarmer creates a warmer over the given cache and loader.
func NewWarmer(cache *Cache, loader ImageLoader) *Warmer {
	if cache == nil {
		cache = SharedCache()
	}
	return &Warmer{cache: cache, loader: loader}
}

// Warm loads every not-yet-cached URL concurrently. Failures are
// logged and otherwise ignored; the card will load its image on its
// own when it becomes visible.
func (w *Warmer) Warm(ctx context.Context, urls []string) {
	if w.loader == nil {
		return
	}
	for _, url := range urls {
		if url == "" || w.cache.Loaded(url) {
			continue
		}
		w.wg.Add(1)
		go func(url string) {
			defer w.wg.Done()
			if err := w.loader.Load(ctx, url); err != nil {
				log.Printf("[Warmer] prefetch failed for %s: %v", url, err)
				return
			}
			w.cache.MarkLoaded(url)
		}(url)
	}
}

// Wait blocks until all in-flight warms finish. Intended for tests and
// shutdown.
func (w *Warmer) Wait() {
	w.wg.Wait()
}
