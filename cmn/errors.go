// Package cmn provides common low-level types and utilities shared across
// the update-server packages: the error taxonomy, path/digest helpers, and
// a small bounded semaphore used by the scan pipeline.
/*
 * Copyright (c) 2024, Lighty-Launcher. All rights reserved.
 */
package cmn

import (
	"errors"
	"fmt"
)

// Kind identifies one of the error categories from the error-handling
// design: I/O, digest, upload/delete, storage config, scan structural,
// cache operation, remote HTTP, CDN, join, namespace-not-found, and
// config parse/migration.
type Kind string

const (
	KindIO              Kind = "io"
	KindDigest          Kind = "digest"
	KindUpload          Kind = "upload"
	KindDelete          Kind = "delete"
	KindStorageConfig   Kind = "storage_config"
	KindScanStructural  Kind = "scan_structural"
	KindCacheOperation  Kind = "cache_operation"
	KindRemoteHTTP      Kind = "remote_http"
	KindCDN             Kind = "cdn"
	KindJoin            Kind = "join"
	KindNamespaceAbsent Kind = "namespace_not_found"
	KindConfigParse     Kind = "config_parse"
)

// Error is the common wrapper for every taxonomy member. It carries the
// kind so callers can branch with errors.Is/errors.As, plus free-form
// context (namespace, key, path) useful in log lines.
type Error struct {
	Kind    Kind
	Op      string // operation that failed, e.g. "scan.libraries", "storage.upload"
	Subject string // namespace, key, or path the error is about
	Err     error  // wrapped cause, may be nil
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Op, e.Subject)
	}
	return fmt.Sprintf("%s: %s: %s: %v", e.Kind, e.Op, e.Subject, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, &cmn.Error{Kind: KindIO}) match on kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != "" && t.Kind != e.Kind {
		return false
	}
	return true
}

func newErr(kind Kind, op, subject string, err error) *Error {
	return &Error{Kind: kind, Op: op, Subject: subject, Err: err}
}

func NewIOError(op, subject string, err error) error {
	return newErr(KindIO, op, subject, err)
}

func NewDigestError(op, subject string, err error) error {
	return newErr(KindDigest, op, subject, err)
}

func NewUploadError(key string, err error) error {
	return newErr(KindUpload, "storage.upload", key, err)
}

func NewDeleteError(key string, err error) error {
	return newErr(KindDelete, "storage.delete", key, err)
}

func NewStorageConfigError(op string, err error) error {
	return newErr(KindStorageConfig, op, "", err)
}

func NewScanStructuralError(namespace string, err error) error {
	return newErr(KindScanStructural, "scan", namespace, err)
}

func NewCacheOperationError(op, subject string, err error) error {
	return newErr(KindCacheOperation, op, subject, err)
}

func NewRemoteHTTPError(op, subject string, err error) error {
	return newErr(KindRemoteHTTP, op, subject, err)
}

func NewCDNError(op, subject string, err error) error {
	return newErr(KindCDN, op, subject, err)
}

func NewJoinError(op string, err error) error {
	return newErr(KindJoin, op, "", err)
}

// NewNamespaceNotFoundError builds the *Error returned whenever a
// user-referenced namespace is absent from (or disabled in) the
// configuration.
func NewNamespaceNotFoundError(name string) error {
	return newErr(KindNamespaceAbsent, "lookup", name, errNamespaceAbsent)
}

var errNamespaceAbsent = errors.New("namespace not found")

func NewConfigParseError(path string, err error) error {
	return newErr(KindConfigParse, "config.parse", path, err)
}

// IsNamespaceNotFound reports whether err (or a wrapped cause) signals
// that a referenced namespace does not exist.
func IsNamespaceNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindNamespaceAbsent
}
