package repos

import (
	"devstore/internal/domain"

	"github.com/jmoiron/sqlx"
)

type ContactRepo struct{ db *sqlx.DB }

func NewContactRepo(db *sqlx.DB) *ContactRepo { return &ContactRepo{db: db} }

func (r *ContactRepo) Create(m domain.ContactMessage) error {
	_, err := r.db.Exec(`
	  INSERT INTO contact_messages(id, full_name, email, subject, message, read, created_at)
	  VALUES (?,?,?,?,?,0,CURRENT_TIMESTAMP)
	`, m.ID, m.FullName, m.Email, m.Subject, m.Message)
	return err
}

func (r *ContactRepo) ListLatest(limit int) ([]domain.ContactMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []domain.ContactMessage
	err := r.db.Select(&out, `
	  SELECT id, full_name, email, COALESCE(subject,'') AS subject, message, read, created_at
	  FROM contact_messages
	  ORDER BY datetime(created_at) DESC LIMIT ?
	`, limit)
	return out, err
}

func (r *ContactRepo) MarkRead(id string) error {
	_, err := r.db.Exec(`UPDATE contact_messages SET read = 1 WHERE id = ?`, id)
	return err
}
