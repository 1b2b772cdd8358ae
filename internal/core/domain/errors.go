package domain

import "errors"

// Sentinel errors. The message of each is the text shown to API clients, so
// it never carries internal detail; causes are attached with %w and logged.
var (
	// ErrConfig means a signing secret is missing. Fatal at startup.
	ErrConfig = errors.New("token signing secret is not configured")

	ErrMissingToken          = errors.New("token not provided")
	ErrMalformedHeader       = errors.New("malformed token")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")

	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrVerification       = errors.New("password verification failed")

	ErrMissingRefreshToken = errors.New("refresh token not provided")
	ErrUnknownRefreshToken = errors.New("unknown refresh token")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrTokenPersistence    = errors.New("could not persist session")

	ErrUnauthenticated  = errors.New("access denied: user not authenticated")
	ErrInsufficientRole = errors.New("access denied: insufficient permissions")
	ErrAuthorization    = errors.New("authorization error")

	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("username already exists")
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidIdentity = errors.New("user record is missing identity fields")

	ErrStoreUnavailable = errors.New("credential store unavailable")
)
