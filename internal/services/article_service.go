package services

import (
	"devstore/internal/domain"
	"devstore/internal/repos"
)

type ArticleService struct {
	Articles *repos.ArticleRepo
}

func NewArticleService(articles *repos.ArticleRepo) *ArticleService {
	return &ArticleService{Articles: articles}
}

func (s *ArticleService) List(page, pageSize int) ([]domain.Article, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = PageSize
	}
	total, err := s.Articles.CountPublished()
	if err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * pageSize
	items, err := s.Articles.ListPublished(pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	pages := (total + pageSize - 1) / pageSize
	return items, pages, nil
}

func (s *ArticleService) GetBySlug(slug string) (domain.Article, error) {
	return s.Articles.GetBySlug(slug)
}
