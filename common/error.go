// Copyright 2014 The go-probeum Authors
// This file is part of the go-probeum library.
//
// The go-probeum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-probeum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-probeum library. If not, see <http://www.gnu.org/licenses/>.

package common

import (
	"errors"
	"fmt"
)

// MalformedKind enumerates every way an inbound frame can be attributed to
// a misbehaving or buggy peer. Any of these kinds triggers peer banning in
// the receive loop.
type MalformedKind int

const (
	DeserializationIssue MalformedKind = iota
	InvalidBoolean
	InvalidHash
	InvalidSignature
	InvalidTypeId
	InvalidUtf8
	InvalidEventId
	MissingData
	UnknownPublisher
)

func (k MalformedKind) String() string {
	switch k {
	case DeserializationIssue:
		return "DeserializationIssue"
	case InvalidBoolean:
		return "InvalidBoolean"
	case InvalidHash:
		return "InvalidHash"
	case InvalidSignature:
		return "InvalidSignature"
	case InvalidTypeId:
		return "InvalidTypeId"
	case InvalidUtf8:
		return "InvalidUtf8"
	case InvalidEventId:
		return "InvalidEventId"
	case MissingData:
		return "MissingData"
	case UnknownPublisher:
		return "UnknownPublisher"
	default:
		return "Unknown"
	}
}

// MalformedError is a peer-attributable validity failure: bad bytes, a bad
// hash, a bad signature, or an unknown type id. The receive loop logs it,
// bans the originating peer, and closes the socket.
type MalformedError struct {
	Kind  MalformedKind
	Field string
	Err   error
}

func (e *MalformedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Field, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Field)
}

func (e *MalformedError) Unwrap() error { return e.Err }

// Malformed constructs a MalformedError for a given field description.
func Malformed(kind MalformedKind, field string) *MalformedError {
	return &MalformedError{Kind: kind, Field: field}
}

// MalformedWrap constructs a MalformedError wrapping an underlying decode error.
func MalformedWrap(kind MalformedKind, field string, err error) *MalformedError {
	return &MalformedError{Kind: kind, Field: field, Err: err}
}

// IsMalformed reports whether err is (or wraps) a MalformedError.
func IsMalformed(err error) (*MalformedError, bool) {
	var m *MalformedError
	if errors.As(err, &m) {
		return m, true
	}
	return nil, false
}

// TransportError wraps an I/O failure on the underlying mesh transport.
// Send-side failures are logged and the caller continues; receive-side
// failures terminate the affected loop.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("transport: %v", e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// Transport wraps err as a TransportError, or returns nil if err is nil.
func Transport(err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{Err: err}
}

// PersistenceError wraps a database or serialization failure that is not
// attributable to any peer. It bubbles up to the Node supervisor.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("persistence: %v", e.Err) }
func (e *PersistenceError) Unwrap() error { return e.Err }

// Persistence wraps err as a PersistenceError, or returns nil if err is nil.
func Persistence(err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Err: err}
}

// ErrAlreadyExists is returned by channel creation when the channel already exists.
var ErrAlreadyExists = errors.New("channel already exists")

// ErrNotFound is returned by lookups that find nothing and have no optional-return shape.
var ErrNotFound = errors.New("not found")