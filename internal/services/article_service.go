package services

import (
	"context"
	"errors"
	"strings"

	"github.com/synageion/synageion/gate"
	"github.com/synageion/synageion/internal/models"
	"github.com/synageion/synageion/internal/policy"
	"github.com/synageion/synageion/validation"
	"gorm.io/gorm"
)

// ArticleService maintains the article master data. Buyers only.
type ArticleService struct {
	Deps
}

func NewArticleService(d Deps) *ArticleService {
	return &ArticleService{Deps: d}
}

// ArticleInput is the create/update form.
type ArticleInput struct {
	ArticleNumber string `form:"article_number" validate:"required"`
	Name          string `form:"name" validate:"required"`
	Description   string `form:"description"`
	MinStock      int    `form:"min_stock" validate:"gte=0"`
}

func (in ArticleInput) normalize() ArticleInput {
	in.ArticleNumber = strings.TrimSpace(in.ArticleNumber)
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	return in
}

// List returns articles ordered by number; inactive ones only when asked.
func (s *ArticleService) List(ctx context.Context, actor Actor, includeInactive bool) ([]models.Article, error) {
	if err := s.authorize(ctx, actor, policy.ResourceArticle, gate.ActionList); err != nil {
		return nil, err
	}
	q := s.DB.WithContext(ctx).Order("article_number")
	if !includeInactive {
		q = q.Where("status = ?", models.ArticleActive)
	}
	var out []models.Article
	if err := q.Find(&out).Error; err != nil {
		s.logger().Errorw("list articles failed", "error", err)
		return nil, storageError("list articles", err)
	}
	return out, nil
}

// ListActive is List without inactive articles.
func (s *ArticleService) ListActive(ctx context.Context, actor Actor) ([]models.Article, error) {
	return s.List(ctx, actor, false)
}

func (s *ArticleService) Get(ctx context.Context, actor Actor, id uint) (*models.Article, error) {
	if err := s.authorize(ctx, actor, policy.ResourceArticle, gate.ActionView); err != nil {
		return nil, err
	}
	return s.load(s.DB.WithContext(ctx), id)
}

func (s *ArticleService) load(db *gorm.DB, id uint) (*models.Article, error) {
	var a models.Article
	if err := db.First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, storageError("load article", err)
	}
	return &a, nil
}

// Create validates the input, reporting every violation, and stores an active article.
func (s *ArticleService) Create(ctx context.Context, actor Actor, in ArticleInput) (*models.Article, error) {
	if err := s.authorize(ctx, actor, policy.ResourceArticle, gate.ActionCreate); err != nil {
		return nil, err
	}
	in = in.normalize()
	if v := validation.Struct(in); !v.Empty() {
		return nil, invalid(v)
	}
	a := models.Article{
		ArticleNumber: in.ArticleNumber,
		Name:          in.Name,
		Description:   in.Description,
		MinStock:      in.MinStock,
		Status:        models.ArticleActive,
	}
	if err := s.DB.WithContext(ctx).Create(&a).Error; err != nil {
		return nil, s.writeError("create article", err)
	}
	s.logger().Infow("article created", "actor", actor.Username, "article_number", a.ArticleNumber)
	return &a, nil
}

// Update overwrites the editable fields of an article.
func (s *ArticleService) Update(ctx context.Context, actor Actor, id uint, in ArticleInput) (*models.Article, error) {
	if err := s.authorize(ctx, actor, policy.ResourceArticle, gate.ActionUpdate); err != nil {
		return nil, err
	}
	in = in.normalize()
	if v := validation.Struct(in); !v.Empty() {
		return nil, invalid(v)
	}
	db := s.DB.WithContext(ctx)
	a, err := s.load(db, id)
	if err != nil {
		return nil, err
	}
	err = db.Model(a).Updates(map[string]any{
		"article_number": in.ArticleNumber,
		"name":           in.Name,
		"description":    in.Description,
		"min_stock":      in.MinStock,
	}).Error
	if err != nil {
		return nil, s.writeError("update article", err)
	}
	a.ArticleNumber, a.Name, a.Description, a.MinStock = in.ArticleNumber, in.Name, in.Description, in.MinStock
	s.logger().Infow("article updated", "actor", actor.Username, "article_id", id)
	return a, nil
}

// Deactivate marks the article inactive (soft delete).
func (s *ArticleService) Deactivate(ctx context.Context, actor Actor, id uint) error {
	if err := s.authorize(ctx, actor, policy.ResourceArticle, gate.ActionDeactivate); err != nil {
		return err
	}
	db := s.DB.WithContext(ctx)
	a, err := s.load(db, id)
	if err != nil {
		return err
	}
	if err := db.Model(a).Update("status", models.ArticleInactive).Error; err != nil {
		return s.writeError("deactivate article", err)
	}
	s.logger().Infow("article deactivated", "actor", actor.Username, "article_id", id)
	return nil
}

func (s *ArticleService) writeError(op string, err error) error {
	if isDuplicate(err) {
		return ErrDuplicateArticleNumber
	}
	s.logger().Errorw(op+" failed", "error", err)
	return storageError(op, err)
}
