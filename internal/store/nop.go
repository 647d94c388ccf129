package store

import "github.com/amishk599/oneofjob/internal/model"

// NopStore discards snapshots. It is used when persistence is disabled, so
// every restart begins with an empty cache.
type NopStore struct{}

func NewNopStore() *NopStore { return &NopStore{} }

func (s *NopStore) Save(model.Snapshot) error          { return nil }
func (s *NopStore) LoadAll() ([]model.Snapshot, error) { return nil, nil }
func (s *NopStore) Delete(string) error                { return nil }
func (s *NopStore) Clear() error                       { return nil }
