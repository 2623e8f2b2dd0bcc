// Package model holds the domain types shared across layers: the verified
// caller Identity and the stored User with its onboarding request.
package model
