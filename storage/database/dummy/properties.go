package dummydb

import (
	"context"

	"github.com/edusuite/gradebook/core/order"
)

const assignmentOrderProp = "gbng_assignment_order"

type propertyStore struct {
	db *DB
}

var _ order.PropertyStore = (*propertyStore)(nil) // interface compliance check

func NewPropertyStore(db *DB) order.PropertyStore {
	return &propertyStore{db: db}
}

func (store *propertyStore) OrderProperty(_ context.Context, siteID string) ([]byte, error) {
	store.db.RLock()
	defer store.db.RUnlock()
	return store.db.properties[siteID][assignmentOrderProp], nil
}

func (store *propertyStore) SetOrderProperty(_ context.Context, siteID string, blob []byte) error {
	store.db.Lock()
	defer store.db.Unlock()

	if store.db.properties[siteID] == nil {
		store.db.properties[siteID] = make(map[string][]byte)
	}
	store.db.properties[siteID][assignmentOrderProp] = blob
	return nil
}
