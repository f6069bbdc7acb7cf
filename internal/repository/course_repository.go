package repository

import (
	"errors"

	"github.com/ild-thl/motbot-sub000/internal/models"
	"gorm.io/gorm"
)

type CourseRepository interface {
	GetByID(id uint) (*models.Course, error)
	GetByShortname(shortname string) (*models.Course, error)
	List(offset, limit int) ([]*models.Course, error)
}

type courseRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) GetByID(id uint) (*models.Course, error) {
	var course models.Course
	err := r.db.First(&course, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &course, nil
}

func (r *courseRepository) GetByShortname(shortname string) (*models.Course, error) {
	var course models.Course
	err := r.db.Where("shortname = ?", shortname).First(&course).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &course, nil
}

func (r *courseRepository) List(offset, limit int) ([]*models.Course, error) {
	var courses []*models.Course
	err := r.db.Offset(offset).Limit(limit).Find(&courses).Error
	return courses, err
}

type CourseMemberRepository interface {
	GetByID(id uint) (*models.CourseMember, error)
	GetByCourseAndUser(courseID, userID uint) (*models.CourseMember, error)
	ListTeachers(courseID uint) ([]*models.User, error)
	ListCoursesForUser(userID uint) ([]*models.Course, error)
}

type courseMemberRepository struct {
	db *gorm.DB
}

func NewCourseMemberRepository(db *gorm.DB) CourseMemberRepository {
	return &courseMemberRepository{db: db}
}

func (r *courseMemberRepository) GetByID(id uint) (*models.CourseMember, error) {
	var member models.CourseMember
	err := r.db.Preload("User").Preload("Course").First(&member, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &member, nil
}

func (r *courseMemberRepository) GetByCourseAndUser(courseID, userID uint) (*models.CourseMember, error) {
	var member models.CourseMember
	err := r.db.Where("course_id = ? AND user_id = ?", courseID, userID).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &member, nil
}

func (r *courseMemberRepository) ListTeachers(courseID uint) ([]*models.User, error) {
	var members []*models.CourseMember
	err := r.db.
		Preload("User").
		Where("course_id = ? AND role = ?", courseID, models.RoleTeacher).
		Find(&members).Error
	if err != nil {
		return nil, err
	}

	teachers := make([]*models.User, 0, len(members))
	for _, m := range members {
		teachers = append(teachers, &m.User)
	}

	return teachers, nil
}

func (r *courseMemberRepository) ListCoursesForUser(userID uint) ([]*models.Course, error) {
	var members []*models.CourseMember
	err := r.db.
		Preload("Course").
		Where("user_id = ?", userID).
		Find(&members).Error
	if err != nil {
		return nil, err
	}

	courses := make([]*models.Course, 0, len(members))
	for _, m := range members {
		courses = append(courses, &m.Course)
	}

	return courses, nil
}
