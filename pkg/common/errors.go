package common

import (
	"errors"
)

var (
	// Subscription errors
	ErrSubscriptionNotFound                  = errors.New("subscription not found")
	ErrSubscriptionUniqueConstraintViolation = errors.New("subscription unique constraint violation")
	ErrInvalidScopeReference                 = errors.New("subscription scope does not match its project/component references")

	// User and relation errors
	ErrUserNotFound                  = errors.New("user not found")
	ErrUserUniqueConstraintViolation = errors.New("user unique constraint violation")

	// Notification type errors
	ErrUnknownNotificationType   = errors.New("unknown notification type")
	ErrUnknownParentNotification = errors.New("notification type declares an unknown parent")

	// Digest errors
	ErrInvalidDigestFrequency = errors.New("frequency is not a digest cadence")
	ErrWatermarkConflict      = errors.New("digest watermark was advanced concurrently")

	// Provider errors
	ErrUnknownStoreProvider    = errors.New("unknown store provider")
	ErrUnknownNotifierProvider = errors.New("unknown notifier provider")
)
