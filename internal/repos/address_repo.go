package repos

import (
	"database/sql"

	"devstore/internal/domain"

	"github.com/jmoiron/sqlx"
)

type AddressRepo struct{ db *sqlx.DB }

func NewAddressRepo(db *sqlx.DB) *AddressRepo { return &AddressRepo{db: db} }

func (r *AddressRepo) ListByUser(userID string) ([]domain.Address, error) {
	var out []domain.Address
	err := r.db.Select(&out, `
	  SELECT id, user_id, full_name, phone, province, city, district,
	         street_address, COALESCE(details,'') AS details, postal_code, is_default
	  FROM addresses
	  WHERE user_id = ?
	  ORDER BY is_default DESC, id
	`, userID)
	return out, err
}

// Default returns the user's default shipping address, or nil when the user
// has none. Absence is a valid state, not an error.
func (r *AddressRepo) Default(userID string) (*domain.Address, error) {
	var a domain.Address
	err := r.db.Get(&a, `
	  SELECT id, user_id, full_name, phone, province, city, district,
	         street_address, COALESCE(details,'') AS details, postal_code, is_default
	  FROM addresses
	  WHERE user_id = ? AND is_default = 1
	`, userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
