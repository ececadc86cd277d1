// Package catalog holds the pure document catalog logic: popularity ranking,
// search filtering, the featured/remainder split of the home listing, and the
// per-year subject grouping with its navigation index.
//
// Nothing here performs I/O. Every function takes a snapshot (a slice of
// models.Document) and returns new slices; inputs are never mutated.
package catalog
