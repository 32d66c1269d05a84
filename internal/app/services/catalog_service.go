package services

import (
	"context"
	"strings"

	"github.com/admissions/portal/internal/app/models"
	"github.com/admissions/portal/internal/app/models/dto"
	"github.com/admissions/portal/internal/app/repositories"
	"github.com/admissions/portal/internal/pkg/apperrors"
)

// CatalogService serves the public school and course catalogue
type CatalogService interface {
	ListSchools(ctx context.Context) ([]*models.School, error)
	GetSchool(ctx context.Context, id int64) (*dto.SchoolDetailResponse, error)
	ListCourses(ctx context.Context, filter *dto.CourseFilterRequest) ([]*models.Course, error)
	GetCourse(ctx context.Context, id int64) (*models.Course, error)
	ListFormFields(ctx context.Context) ([]*models.FormField, error)
}

type catalogServiceImpl struct {
	catalogRepo CatalogStore
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(catalogRepo CatalogStore) CatalogService {
	return &catalogServiceImpl{catalogRepo: catalogRepo}
}

func (s *catalogServiceImpl) ListSchools(ctx context.Context) ([]*models.School, error) {
	schools, err := s.catalogRepo.ListSchools(ctx, true)
	if err != nil {
		return nil, err
	}
	if schools == nil {
		schools = []*models.School{}
	}
	return schools, nil
}

// GetSchool returns an active school with its open courses
func (s *catalogServiceImpl) GetSchool(ctx context.Context, id int64) (*dto.SchoolDetailResponse, error) {
	school, err := s.catalogRepo.GetSchoolByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !school.IsActive {
		return nil, apperrors.ErrSchoolNotFound
	}

	courses, err := s.catalogRepo.ListCourses(ctx, repositories.CourseFilter{SchoolID: id, ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	if courses == nil {
		courses = []*models.Course{}
	}
	return &dto.SchoolDetailResponse{School: school, Courses: courses}, nil
}

func (s *catalogServiceImpl) ListCourses(ctx context.Context, filter *dto.CourseFilterRequest) ([]*models.Course, error) {
	courses, err := s.catalogRepo.ListCourses(ctx, repositories.CourseFilter{
		SchoolID:   filter.SchoolID,
		Level:      strings.TrimSpace(filter.Level),
		Search:     strings.TrimSpace(filter.Search),
		ActiveOnly: true,
	})
	if err != nil {
		return nil, err
	}
	if courses == nil {
		courses = []*models.Course{}
	}
	return courses, nil
}

// GetCourse hides inactive courses
func (s *catalogServiceImpl) GetCourse(ctx context.Context, id int64) (*models.Course, error) {
	course, err := s.catalogRepo.GetCourseByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !course.IsActive {
		return nil, apperrors.ErrCourseNotFound
	}
	return course, nil
}

func (s *catalogServiceImpl) ListFormFields(ctx context.Context) ([]*models.FormField, error) {
	fields, err := s.catalogRepo.ListFormFields(ctx)
	if err != nil {
		return nil, err
	}
	if fields == nil {
		fields = []*models.FormField{}
	}
	return fields, nil
}
