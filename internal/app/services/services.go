// Package services holds the business rules of the admissions portal.
//
// Services defined in this package:
//   - AuthService: registration, login and refresh token rotation
//   - ProfileService: the student profile and its completion score
//   - CatalogService: schools, courses and form fields
//   - ApplicationService: the draft, submit and review lifecycle
//   - DocumentService: files attached to draft applications
//   - ReviewService: staff listing, statistics, history and assignment
//
// Services depend on the store interfaces in stores.go, which the
// repositories package implements.
package services
