package services

import (
	"context"
	"testing"
	"time"

	"github.com/admissions/portal/internal/app/models"
	"github.com/admissions/portal/internal/app/models/dto"
	"github.com/admissions/portal/internal/pkg/apperrors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scoringNow = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func completeProfile(userID int64) (*models.User, *models.StudentProfile) {
	dob := time.Date(2005, 3, 14, 0, 0, 0, 0, time.UTC)
	gpa := 3.6
	return &models.User{ID: userID, FirstName: "Ada", LastName: "Lovelace", Phone: "+44 20 7946 0000"},
		&models.StudentProfile{
			UserID:             userID,
			DateOfBirth:        &dob,
			Nationality:        "British",
			PassportNumber:     "GB1234567",
			Address:            "12 St James's Square",
			City:               "London",
			Country:            "United Kingdom",
			PostalCode:         "SW1Y 4JH",
			PreviousEducation:  "A-levels: Mathematics, Physics",
			GPA:                &gpa,
			EnglishProficiency: "Native",
		}
}

func TestProfileWeightsSumTo100(t *testing.T) {
	total := 0
	for _, f := range profileFields {
		total += f.weight
	}
	assert.Equal(t, 100, total)
}

func TestScoreProfile(t *testing.T) {
	user, profile := completeProfile(1)
	score, missing := ScoreProfile(user, profile, scoringNow)
	assert.Equal(t, 100, score)
	assert.Empty(t, missing)

	profile.PassportNumber = "bad!"
	profile.GPA = nil
	score, missing = ScoreProfile(user, profile, scoringNow)
	assert.Equal(t, 85, score)
	assert.Equal(t, []string{"passportNumber", "gpa"}, missing)

	tooYoung := scoringNow.AddDate(-10, 0, 0)
	profile.DateOfBirth = &tooYoung
	score, _ = ScoreProfile(user, profile, scoringNow)
	assert.Equal(t, 75, score)

	score, missing = ScoreProfile(&models.User{}, nil, scoringNow)
	assert.Equal(t, 0, score)
	assert.Len(t, missing, len(profileFields))
}

func newProfileFixture(t *testing.T) (*profileServiceImpl, *fakeUserStore, *fakeProfileStore) {
	t.Helper()
	users := newFakeUserStore()
	profiles := newFakeProfileStore()
	svc := NewProfileService(users, profiles, 80, zerolog.Nop()).(*profileServiceImpl)
	svc.now = func() time.Time { return scoringNow }
	return svc, users, profiles
}

func TestComputeProfileCompletion(t *testing.T) {
	svc, users, profiles := newProfileFixture(t)
	user, profile := completeProfile(0)
	user.Email = "ada@example.com"
	users.add(user)
	profile.UserID = user.ID
	profile.City = ""
	profile.Country = ""
	profile.PostalCode = ""
	require.NoError(t, profiles.Upsert(context.Background(), profile))

	completion, err := svc.ComputeProfileCompletion(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 85, completion.Score)
	assert.Equal(t, 80, completion.Threshold)
	assert.True(t, completion.CanSubmit())
	assert.ElementsMatch(t, []string{"city", "country", "postalCode"}, completion.MissingFields)

	_, err = svc.ComputeProfileCompletion(context.Background(), 999)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestUpdateProfile(t *testing.T) {
	svc, users, _ := newProfileFixture(t)
	user := users.add(&models.User{Email: "new@example.com", FirstName: "New", LastName: "Student", RoleType: models.RoleStudent})

	resp, err := svc.GetProfile(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, resp.Completion.Score)
	assert.False(t, resp.Completion.CanSubmit)

	phone := "+44 7700 900123"
	dob := "2005-03-14"
	nationality := "Irish"
	gpa := 3.2
	resp, err = svc.UpdateProfile(context.Background(), user.ID, &dto.UpdateProfileRequest{
		Phone:       &phone,
		DateOfBirth: &dob,
		Nationality: &nationality,
		GPA:         &gpa,
	})
	require.NoError(t, err)
	assert.Equal(t, 55, resp.Completion.Score)
	assert.Equal(t, "Irish", resp.Profile.Nationality)
	assert.Equal(t, phone, resp.User.Phone)

	stored, _ := users.GetUserByID(context.Background(), user.ID)
	assert.Equal(t, phone, stored.Phone)
	assert.Equal(t, "New", stored.FirstName)

	bad := "14-03-2005"
	_, err = svc.UpdateProfile(context.Background(), user.ID, &dto.UpdateProfileRequest{DateOfBirth: &bad})
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
}
