// Package cache keeps todo list results close to the API.
//
// ListCache wraps a todos.Store and answers Query from a local expirable LRU
// and, when Redis is configured, a shared Redis tier. Every key embeds a
// generation number stored in Redis; NotifyListStale bumps it, so one write
// invalidates the lists of every instance at once. The bump is followed by a
// pub/sub broadcast on StaleChannel that lets peers release their local
// entries early.
//
// Only list filters that admit rows are cached. The bulk read behind a miss
// is the store's filtered query, so the cache never widens what a caller can
// see.
package cache
