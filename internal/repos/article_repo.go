package repos

import (
	"devstore/internal/domain"

	"github.com/jmoiron/sqlx"
)

type ArticleRepo struct{ db *sqlx.DB }

func NewArticleRepo(db *sqlx.DB) *ArticleRepo { return &ArticleRepo{db: db} }

const articleCols = `
  id, slug, title, COALESCE(excerpt,'') AS excerpt, COALESCE(content,'') AS content,
  COALESCE(image_url,'') AS image_url, COALESCE(author,'') AS author, published,
  created_at, COALESCE(updated_at,'') AS updated_at`

func (r *ArticleRepo) ListPublished(limit, offset int) ([]domain.Article, error) {
	var out []domain.Article
	err := r.db.Select(&out, `
	  SELECT `+articleCols+` FROM articles
	  WHERE published = 1
	  ORDER BY datetime(created_at) DESC
	  LIMIT ? OFFSET ?
	`, limit, offset)
	return out, err
}

func (r *ArticleRepo) CountPublished() (int, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM articles WHERE published = 1`)
	return n, err
}

func (r *ArticleRepo) GetBySlug(slug string) (domain.Article, error) {
	var a domain.Article
	err := r.db.Get(&a, `SELECT `+articleCols+` FROM articles WHERE slug = ? AND published = 1`, slug)
	return a, err
}
