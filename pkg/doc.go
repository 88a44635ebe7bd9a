// Package jose implements JavaScript Object Signing and Encryption:
// compact JSON Web Signatures, compact JSON Web Encryption, the JSON
// Web Key model, and a claims-bearing token type built on top of them.
//
// Each concern lives in its own package: jws and jwe are the two
// compact-serialization engines, jwa names the algorithms they dispatch
// on, header models the protected header, jwk and keyutil handle key
// material, and jwt layers claims and verification policy over jws.
//
// Related RFCs:
//  - RFC7515 https://datatracker.ietf.org/doc/html/rfc7515 JWS, JSON Web Signature
//  - RFC7516 https://datatracker.ietf.org/doc/html/rfc7516 JWE, JSON Web Encryption
//  - RFC7517 https://datatracker.ietf.org/doc/html/rfc7517 JWK, JSON Web Key
//  - RFC7518 https://datatracker.ietf.org/doc/html/rfc7518 JWA, JSON Web Algorithms
//  - RFC7519 https://datatracker.ietf.org/doc/html/rfc7519 JWT, JSON Web Token
package jose
