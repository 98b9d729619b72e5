package utils

import (
	"net/mail"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func IsValidPropertyID(id string) bool {
	return primitive.IsValidObjectID(id)
}

// ParsePropertyID accepts only the 24 character hex form.
func ParsePropertyID(id string) (primitive.ObjectID, bool) {
	if !IsValidPropertyID(id) {
		return primitive.NilObjectID, false
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}

// NormalizeEmail lower-cases and trims an address, reporting whether it
// parses as a bare address.
func NormalizeEmail(email string) (string, bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return email, false
	}
	return email, true
}

// SplitList parses a comma separated form value, dropping empty entries.
func SplitList(v string) []string {
	out := []string{}
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ParsePage returns a 1-based page number, defaulting to 1.
func ParsePage(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// ParseLimit bounds a page size to (0, max], using def when unset or invalid.
func ParseLimit(v string, def, max int) int {
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

// SplitLocation derives city and state from a "City, State" location.
func SplitLocation(location string) (city, state string) {
	parts := strings.Split(location, ",")
	if len(parts) >= 1 {
		city = strings.TrimSpace(parts[0])
	}
	if len(parts) >= 2 {
		state = strings.TrimSpace(parts[1])
	}
	return city, state
}
