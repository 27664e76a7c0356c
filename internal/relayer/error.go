// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package relayer holds the error taxonomy shared across the batching
// engine, the settlement adapters, and the command-line entry point.
package relayer

import (
	"errors"
	"fmt"
)

// Kind classifies an Error for callers that need to branch on failure mode
// (e.g. the CLI's exit-code mapping, or a settlement retry policy) without
// string-matching a message.
type Kind int

const (
	// KindOther is a generic, unclassified failure.
	KindOther Kind = iota
	// KindConfig reports a malformed or invalid configuration.
	KindConfig
	// KindIO reports a filesystem or stream I/O failure.
	KindIO
	// KindSerialization reports a JSON marshal/unmarshal failure.
	KindSerialization
	// KindBatchTooLarge reports a batch that exceeds a submission limit
	// (e.g. more than six blob segments).
	KindBatchTooLarge
	// KindRPC reports a failure talking to the settlement RPC endpoint.
	KindRPC
	// KindContract reports a failure reported by the settlement contract
	// itself (a reverted call, a decode failure on its return data).
	KindContract
	// KindInvalidSignature reports an intent whose signature is absent or
	// malformed.
	KindInvalidSignature
	// KindBatchProcessing reports a failure while assembling or ordering a
	// batch.
	KindBatchProcessing
	// KindAttestation reports a failure producing or verifying a hardware
	// attestation quote.
	KindAttestation
	// KindInvalidIntent reports an intent that fails structural validation
	// (zero amount, missing addresses, and the like).
	KindInvalidIntent
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindIO:
		return "io"
	case KindSerialization:
		return "serialization"
	case KindBatchTooLarge:
		return "batch_too_large"
	case KindRPC:
		return "rpc"
	case KindContract:
		return "contract"
	case KindInvalidSignature:
		return "invalid_signature"
	case KindBatchProcessing:
		return "batch_processing"
	case KindAttestation:
		return "attestation"
	case KindInvalidIntent:
		return "invalid_intent"
	default:
		return "other"
	}
}

// Error is the relayer's error type: a Kind plus a message and an optional
// wrapped cause, supporting errors.Is/As via Unwrap.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same Kind, so
// errors.Is(err, relayer.New(relayer.KindRPC, "")) matches any RPC-kind
// error regardless of message; KindOf is the more direct way to branch on
// a Kind.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// New builds a bare Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error of the given kind that carries cause as its Unwrap
// target. If cause is nil, Wrap behaves like New.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Errorf builds an Error of the given kind with a formatted message.
func Errorf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind of err if it is (or wraps) a *Error, and
// KindOther otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindOther
}
