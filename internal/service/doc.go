// Package service implements the business logic between HTTP handlers and
// the repositories.
//
// Services define the repository interfaces they need so tests can supply
// func-field mocks. Failures are returned as apperror values so the HTTP
// layer can hand them straight to the error normalizer.
//
//	profiles := NewProfileService(ProfileServiceConfig{
//	    UserRepo: repository.NewUserRepository(db),
//	    Tracker:  NewLogTracker(logger),
//	})
//	user, err := profiles.SaveOnboarding(ctx, userID, req)
package service
