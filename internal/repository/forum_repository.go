package repository

import (
	"errors"
	"time"

	"github.com/ild-thl/motbot-sub000/internal/models"
	"gorm.io/gorm"
)

type ForumRepository interface {
	Create(post *models.ForumPost) error
	// FindUnansweredStarter returns the oldest discussion-starting post in
	// the course written by a student that has no replies yet.
	FindUnansweredStarter(courseID uint) (*models.ForumPost, error)
	CountRecentByCourse(courseID uint, since time.Time) (int64, error)
}

type forumRepository struct {
	db *gorm.DB
}

func NewForumRepository(db *gorm.DB) ForumRepository {
	return &forumRepository{db: db}
}

func (r *forumRepository) Create(post *models.ForumPost) error {
	return r.db.Create(post).Error
}

func (r *forumRepository) FindUnansweredStarter(courseID uint) (*models.ForumPost, error) {
	var post models.ForumPost

	err := r.db.
		Preload("Author").
		Where("course_id = ?", courseID).
		Where("parent_id IS NULL").
		Where("NOT EXISTS (SELECT 1 FROM forum_posts replies WHERE replies.discussion_id = forum_posts.discussion_id AND replies.parent_id IS NOT NULL AND replies.deleted_at IS NULL)").
		Order("created_at ASC").
		First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &post, nil
}

func (r *forumRepository) CountRecentByCourse(courseID uint, since time.Time) (int64, error) {
	var count int64

	err := r.db.Model(&models.ForumPost{}).
		Where("course_id = ?", courseID).
		Where("created_at >= ?", since).
		Count(&count).Error

	return count, err
}
