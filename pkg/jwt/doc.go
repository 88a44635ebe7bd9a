// Package jwt builds JSON Web Tokens on top of the jws signing engine.
//
// A Token couples a protected header with a set of registered and
// private claims. Verification applies caller policy (allowed
// algorithms, issuers, audiences, clock skew, critical headers)
// before any claim is trusted.
//
// https://datatracker.ietf.org/doc/html/rfc7519
package jwt
