// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios and show the user the specific condition instead of a
// generic failure. For example, ErrExhausted means every portion of a
// post has already been claimed, while ErrDuplicateClaim means the
// caller already holds a claim on that post.
package repository

import "errors"

// ErrNotFound is returned when a referenced entity does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation
// they are not authorized for, such as approving a join request for
// a group they do not administer or claiming a restricted post
// without an approved membership. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed due to
// existing state, such as requesting to join a group while a pending
// request already exists. Handlers should translate this into an
// HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrExhausted is returned when a claim arrives after the post's
// remaining count has reached zero. Distinct from ErrConflict so the
// UI can say "all portions are gone" rather than "already claimed".
var ErrExhausted = errors.New("exhausted")

// ErrExpired is returned when the post is past its availability
// window or has been deactivated by its owner.
var ErrExpired = errors.New("expired")

// ErrDuplicateClaim is returned when the caller already holds a
// claim on the post. The original claim is untouched; callers that
// timed out can treat this as confirmation rather than retrying.
var ErrDuplicateClaim = errors.New("duplicate claim")
