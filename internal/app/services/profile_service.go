package services

import (
	"context"
	"fmt"
	"time"

	"github.com/admissions/portal/internal/app/models"
	"github.com/admissions/portal/internal/app/models/dto"
	"github.com/admissions/portal/internal/pkg/apperrors"
	"github.com/admissions/portal/internal/pkg/helpers"
	"github.com/admissions/portal/internal/pkg/validation"
	"github.com/rs/zerolog"
)

// ProfileCompletion is the weighted completeness of a student's profile
type ProfileCompletion struct {
	Score         int
	Threshold     int
	MissingFields []string
}

// CanSubmit reports whether the score clears the threshold
func (p *ProfileCompletion) CanSubmit() bool {
	return p.Score >= p.Threshold
}

// ToResponse maps p to its DTO
func (p *ProfileCompletion) ToResponse() dto.ProfileCompletionResponse {
	missing := p.MissingFields
	if missing == nil {
		missing = []string{}
	}
	return dto.ProfileCompletionResponse{
		Score:         p.Score,
		Threshold:     p.Threshold,
		CanSubmit:     p.CanSubmit(),
		MissingFields: missing,
	}
}

// ProfileScorer computes the completion score that gates submission
type ProfileScorer interface {
	ComputeProfileCompletion(ctx context.Context, studentID int64) (*ProfileCompletion, error)
}

// ProfileService manages the student's own profile
type ProfileService interface {
	ProfileScorer
	GetProfile(ctx context.Context, userID int64) (*dto.ProfileResponse, error)
	UpdateProfile(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) (*dto.ProfileResponse, error)
}

type profileField struct {
	name   string
	weight int
	filled func(u *models.User, p *models.StudentProfile, now time.Time) bool
}

func nonEmpty(min, max int) func(string) bool {
	return func(s string) bool {
		return validation.NewStringValidation(s).WithMinLength(min).WithMaxLength(max).Validate()
	}
}

// profileFields weights sum to 100
var profileFields = []profileField{
	{"firstName", 10, func(u *models.User, _ *models.StudentProfile, _ time.Time) bool {
		return nonEmpty(validation.NameMinLength, validation.NameMaxLength)(u.FirstName)
	}},
	{"lastName", 10, func(u *models.User, _ *models.StudentProfile, _ time.Time) bool {
		return nonEmpty(validation.NameMinLength, validation.NameMaxLength)(u.LastName)
	}},
	{"phone", 10, func(u *models.User, _ *models.StudentProfile, _ time.Time) bool {
		return validation.NewStringValidation(u.Phone).WithPattern(validation.CompiledPatterns.Phone).Validate()
	}},
	{"dateOfBirth", 10, func(_ *models.User, p *models.StudentProfile, now time.Time) bool {
		return validation.ValidBirthDate(p.DateOfBirth, now)
	}},
	{"nationality", 10, func(_ *models.User, p *models.StudentProfile, _ time.Time) bool {
		return nonEmpty(2, 100)(p.Nationality)
	}},
	{"passportNumber", 10, func(_ *models.User, p *models.StudentProfile, _ time.Time) bool {
		return validation.NewStringValidation(p.PassportNumber).WithPattern(validation.CompiledPatterns.Passport).Validate()
	}},
	{"address", 5, func(_ *models.User, p *models.StudentProfile, _ time.Time) bool {
		return nonEmpty(5, 255)(p.Address)
	}},
	{"city", 5, func(_ *models.User, p *models.StudentProfile, _ time.Time) bool {
		return nonEmpty(2, 100)(p.City)
	}},
	{"country", 5, func(_ *models.User, p *models.StudentProfile, _ time.Time) bool {
		return nonEmpty(2, 100)(p.Country)
	}},
	{"postalCode", 5, func(_ *models.User, p *models.StudentProfile, _ time.Time) bool {
		return validation.NewStringValidation(p.PostalCode).WithPattern(validation.CompiledPatterns.PostalCode).Validate()
	}},
	{"previousEducation", 10, func(_ *models.User, p *models.StudentProfile, _ time.Time) bool {
		return nonEmpty(2, 2000)(p.PreviousEducation)
	}},
	{"gpa", 5, func(_ *models.User, p *models.StudentProfile, _ time.Time) bool {
		return validation.NewRangeValidation(p.GPA, 0, 10).Validate()
	}},
	{"englishProficiency", 5, func(_ *models.User, p *models.StudentProfile, _ time.Time) bool {
		return nonEmpty(1, 100)(p.EnglishProficiency)
	}},
}

// ScoreProfile returns the weighted score of u and p with the names of unfilled fields
func ScoreProfile(u *models.User, p *models.StudentProfile, now time.Time) (int, []string) {
	if p == nil {
		p = &models.StudentProfile{}
	}
	score := 0
	missing := []string{}
	for _, f := range profileFields {
		if f.filled(u, p, now) {
			score += f.weight
		} else {
			missing = append(missing, f.name)
		}
	}
	return score, missing
}

type profileServiceImpl struct {
	userRepo    UserStore
	profileRepo ProfileStore
	threshold   int
	now         func() time.Time
	logger      zerolog.Logger
}

// NewProfileService creates a new ProfileService
func NewProfileService(userRepo UserStore, profileRepo ProfileStore, threshold int, logger zerolog.Logger) ProfileService {
	return &profileServiceImpl{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		threshold:   threshold,
		now:         time.Now,
		logger:      logger,
	}
}

func (s *profileServiceImpl) load(ctx context.Context, userID int64) (*models.User, *models.StudentProfile, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return user, profile, nil
}

func (s *profileServiceImpl) completion(user *models.User, profile *models.StudentProfile) *ProfileCompletion {
	score, missing := ScoreProfile(user, profile, s.now())
	return &ProfileCompletion{Score: score, Threshold: s.threshold, MissingFields: missing}
}

// ComputeProfileCompletion scores the student's stored profile
func (s *profileServiceImpl) ComputeProfileCompletion(ctx context.Context, studentID int64) (*ProfileCompletion, error) {
	user, profile, err := s.load(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("error loading profile: %w", err)
	}
	return s.completion(user, profile), nil
}

// GetProfile returns the account, profile and score of userID
func (s *profileServiceImpl) GetProfile(ctx context.Context, userID int64) (*dto.ProfileResponse, error) {
	user, profile, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &dto.ProfileResponse{
		User:       dto.NewUserResponse(user),
		Profile:    profile,
		Completion: s.completion(user, profile).ToResponse(),
	}, nil
}

// UpdateProfile merges the set fields into the user and profile rows
func (s *profileServiceImpl) UpdateProfile(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) (*dto.ProfileResponse, error) {
	user, profile, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil || req.LastName != nil || req.Phone != nil {
		setIfPresent(&user.FirstName, req.FirstName)
		setIfPresent(&user.LastName, req.LastName)
		setIfPresent(&user.Phone, req.Phone)
		if err := s.userRepo.UpdateContact(ctx, userID, user.FirstName, user.LastName, user.Phone); err != nil {
			return nil, fmt.Errorf("error updating contact details: %w", err)
		}
	}

	if req.DateOfBirth != nil {
		dob, err := helpers.ParseDate(*req.DateOfBirth)
		if err != nil {
			return nil, apperrors.NewBadRequestError(err.Error())
		}
		profile.DateOfBirth = dob
	}
	setIfPresent(&profile.Nationality, req.Nationality)
	setIfPresent(&profile.PassportNumber, req.PassportNumber)
	setIfPresent(&profile.Address, req.Address)
	setIfPresent(&profile.City, req.City)
	setIfPresent(&profile.Country, req.Country)
	setIfPresent(&profile.PostalCode, req.PostalCode)
	setIfPresent(&profile.PreviousEducation, req.PreviousEducation)
	setIfPresent(&profile.EnglishProficiency, req.EnglishProficiency)
	setIfPresent(&profile.ReferenceContact, req.ReferenceContact)
	if req.GPA != nil {
		gpa := *req.GPA
		profile.GPA = &gpa
	}

	profile.UserID = userID
	profile.UpdatedAt = s.now()
	if err := s.profileRepo.Upsert(ctx, profile); err != nil {
		return nil, fmt.Errorf("error saving profile: %w", err)
	}

	completion := s.completion(user, profile)
	s.logger.Info().Int64("userID", userID).Int("score", completion.Score).Msg("Profile updated")

	return &dto.ProfileResponse{
		User:       dto.NewUserResponse(user),
		Profile:    profile,
		Completion: completion.ToResponse(),
	}, nil
}

func setIfPresent(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
