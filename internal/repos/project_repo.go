package repos

import (
	"devstore/internal/domain"

	"github.com/jmoiron/sqlx"
)

type ProjectRepo struct{ db *sqlx.DB }

func NewProjectRepo(db *sqlx.DB) *ProjectRepo { return &ProjectRepo{db: db} }

const projectCols = `
  id, slug, title, COALESCE(description,'') AS description,
  type_category, type_title, license_title, status_project,
  COALESCE(image_url,'') AS image_url, COALESCE(images_json,'[]') AS images_json,
  COALESCE(link_preview,'') AS link_preview,
  COALESCE(author_name,'') AS author_name, COALESCE(author_role,'') AS author_role,
  COALESCE(author_photo_url,'') AS author_photo_url,
  created_at, COALESCE(updated_at,'') AS updated_at`

// ListAll returns the whole catalog newest-first, skipping rows without a
// creation timestamp (mirrors the upstream feed filter).
func (r *ProjectRepo) ListAll() ([]domain.Project, error) {
	var out []domain.Project
	err := r.db.Select(&out, `
	  SELECT `+projectCols+`
	  FROM projects
	  WHERE created_at IS NOT NULL AND created_at != ''
	  ORDER BY created_at DESC, id
	`)
	return out, err
}

func (r *ProjectRepo) Get(id string) (domain.Project, error) {
	var p domain.Project
	err := r.db.Get(&p, `SELECT `+projectCols+` FROM projects WHERE id = ?`, id)
	return p, err
}

func (r *ProjectRepo) GetBySlug(slug string) (domain.Project, error) {
	var p domain.Project
	err := r.db.Get(&p, `SELECT `+projectCols+` FROM projects WHERE slug = ?`, slug)
	return p, err
}

func (r *ProjectRepo) Licenses(projectID string) ([]domain.License, error) {
	var out []domain.License
	err := r.db.Select(&out, `
	  SELECT project_id, title, price, COALESCE(download_url,'') AS download_url,
	         stock, sold, delivery_days
	  FROM licenses
	  WHERE project_id = ?
	  ORDER BY price
	`, projectID)
	return out, err
}

func (r *ProjectRepo) License(projectID, title string) (domain.License, error) {
	var l domain.License
	err := r.db.Get(&l, `
	  SELECT project_id, title, price, COALESCE(download_url,'') AS download_url,
	         stock, sold, delivery_days
	  FROM licenses
	  WHERE project_id = ? AND LOWER(title) = LOWER(?)
	`, projectID, title)
	return l, err
}

// ReserveStock atomically takes one unit of a license variant for a physical
// delivery. Errors when nothing is left. A reservation that never reaches a
// successful payment must be returned with ReleaseStock.
func (r *ProjectRepo) ReserveStock(projectID, title string) error {
	res, err := r.db.Exec(`
	  UPDATE licenses
	  SET stock = stock - 1
	  WHERE project_id = ? AND LOWER(title) = LOWER(?) AND stock >= 1
	`, projectID, title)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrOutOfStock
	}
	return nil
}

// ReleaseStock puts a reserved unit back after a failed or abandoned
// checkout.
func (r *ProjectRepo) ReleaseStock(projectID, title string) error {
	_, err := r.db.Exec(`
	  UPDATE licenses SET stock = stock + 1
	  WHERE project_id = ? AND LOWER(title) = LOWER(?)
	`, projectID, title)
	return err
}

// RecordSale bumps the sold counter without touching stock; it runs when a
// transaction actually completes.
func (r *ProjectRepo) RecordSale(projectID, title string) error {
	_, err := r.db.Exec(`
	  UPDATE licenses SET sold = sold + 1
	  WHERE project_id = ? AND LOWER(title) = LOWER(?)
	`, projectID, title)
	return err
}
