// Package auth issues and verifies the bearer tokens that guard the
// transducer API.
//
// There is no user store: operators mint tokens with the transducerctl
// command using the shared security.jwt.secret. A token carries a subject
// and one of three roles:
//
//	viewer   read transducers and data
//	operator + record data, set points, metadata
//	admin    + create, rename, delete transducers
//
// Role permissions are a static map checked with HasPermission.
package auth
