// Package common contains shared constants and sentinel errors used across
// GophDiary components.
package common

// AuthorizationHeaderName is the HTTP header and gRPC metadata key carrying
// the session token as "Bearer <token>".
const AuthorizationHeaderName = "authorization"

// BearerScheme is the only accepted authorization scheme.
const BearerScheme = "Bearer"

// TitleLength is the number of characters of a summary used as the
// initial diary title.
const TitleLength = 20
