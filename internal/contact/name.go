// Package contact derives display names for contact records.
package contact

import (
	"strings"

	"github.com/starford/ansuz/internal/models"
)

var (
	givenKeys  = []string{"Given Name", "First Name"}
	familyKeys = []string{"Family Name", "Last Name"}
)

// Name returns the name a contact is known by: its Name attribute, else
// Full Name, else the given and family names joined by a space.
func Name(r *models.Record) (string, bool) {
	if r == nil {
		return "", false
	}
	for _, key := range []string{"Name", "Full Name"} {
		if v := first(r, key); v != "" {
			return v, true
		}
	}
	given := firstOf(r, givenKeys)
	family := firstOf(r, familyKeys)
	name := strings.TrimSpace(given + " " + family)
	return name, name != ""
}

func firstOf(r *models.Record, keys []string) string {
	for _, k := range keys {
		if v := first(r, k); v != "" {
			return v
		}
	}
	return ""
}

func first(r *models.Record, key string) string {
	for _, v := range r.Resolve([]string{key}) {
		if v != "" {
			return v
		}
	}
	return ""
}
