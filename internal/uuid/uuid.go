// Package uuid wraps google/uuid so that IDs can be bound from URIs and
// query strings by gin.
package uuid

import (
	google_uuid "github.com/google/uuid"
)

type UUID struct {
	google_uuid.UUID
}

var Nil UUID

// UnmarshalParam implements the uuid.Parse method
// from https://pkg.go.dev/github.com/google/uuid#Parse
// for UUID
func (u *UUID) UnmarshalParam(p string) error {
	if p == "" {
		*u = Nil
		return nil
	}

	parsed, e := google_uuid.Parse(p)
	if e != nil {
		return e
	}

	*u = UUID{parsed}
	return nil
}

// UnmarshalText lets gin bind UUIDs from URI parameters.
func (u *UUID) UnmarshalText(text []byte) error {
	return u.UnmarshalParam(string(text))
}

// Google returns the wrapped UUID.
func (u UUID) Google() google_uuid.UUID {
	return u.UUID
}
