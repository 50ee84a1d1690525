package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/edusuite/gradebook/core/order"
)

const assignmentOrderProp = "gbng_assignment_order"

type propertyStore struct {
	db *sqlx.DB
}

var _ order.PropertyStore = (*propertyStore)(nil) // interface compliance check

func NewPropertyStore(db *sqlx.DB) order.PropertyStore {
	return &propertyStore{db: db}
}

func (store *propertyStore) OrderProperty(ctx context.Context, siteID string) ([]byte, error) {
	var blob []byte
	err := store.db.GetContext(ctx, &blob,
		`SELECT value FROM site_properties WHERE site_id = $1 AND name = $2`, siteID, assignmentOrderProp)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "fetching site property")
	}
	return blob, nil
}

func (store *propertyStore) SetOrderProperty(ctx context.Context, siteID string, blob []byte) error {
	_, err := store.db.ExecContext(ctx, `
		INSERT INTO site_properties (site_id, name, value) VALUES ($1, $2, $3)
		ON CONFLICT (site_id, name) DO UPDATE SET value = $3`, siteID, assignmentOrderProp, blob)
	if err != nil {
		return errors.Wrap(err, "upserting site property")
	}
	return nil
}
