// Package state keeps per-user conversation values for Telegram bots.
// Each key owns its own lock, so work for one user never waits on another.
// It stays domain-agnostic: bots choose the value type.
package state
