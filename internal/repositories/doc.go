// Package repositories implements SQLite persistence for the optional resolution cache.
//
// Key Implementations:
//   - [ResolutionRepository] : CRUD over the resolutions table keyed by catalog track id
//   - [ResolutionCacheAdapter] : Cache lookups and upserts used by the relay
//
// The cache never stores phone numbers or message bodies. Only public track and video metadata is persisted.
package repositories
