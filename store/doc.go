// Package store persists favourites and their precomputed widget snapshots
// in a bbolt database.
package store
