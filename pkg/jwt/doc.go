// Package jwt signs and verifies Questline credentials.
//
// Credentials are HS256 JSON Web Tokens signed with a shared secret that is
// loaded once at startup. Besides the registered claims they carry the
// caller's userId, email, role, subscriptionTier and guild memberships.
//
// # Verification
//
// Validate reports exactly one of three failures:
//
//   - ErrNoToken: nothing to verify
//   - ErrTokenExpired: signature is good but exp is in the past
//   - ErrInvalidToken: anything else (bad signature, wrong alg, malformed payload)
//
// Use errors.Is to branch on them:
//
//	claims, err := svc.Validate(token)
//	if errors.Is(err, jwt.ErrTokenExpired) {
//	    // ask the client to refresh
//	}
//
// # Bearer headers
//
//	token, err := jwt.ParseBearer(r.Header.Get("Authorization"))
package jwt
