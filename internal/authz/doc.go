// Package authz provides the single-principal authorization model shared by
// the request surface and the background workers.
//
// Core concepts:
//
//   - Principal: A single authorization identity per request (System/User/Test).
//     Set via NewSystemContext or NewUserContext; the context key is
//     unexported, so principals cannot be forged from outside this package.
//
//   - System bypass: Background tasks declare a System principal via
//     WithSystemBypass; every bypass is audited with a stable reason string.
//
// Usage rules:
//
//  1. Each request context carries exactly one principal.
//  2. Background tasks must declare a System principal via WithSystemBypass;
//     RequireSystemPrincipal guards operations reserved for them.
//  3. Role-based decisions belong to the privacy evaluator; this package only
//     answers "who is acting", never "what may they do".
package authz
