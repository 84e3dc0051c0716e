package common

// AuthorizationHeaderName is the HTTP header used to carry the access token
// on inbound requests ("Bearer <token>").
const AuthorizationHeaderName = "Authorization"
