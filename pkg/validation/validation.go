package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var (
	// EmailRegex validates email format
	EmailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	// RecordIDRegex validates record id format (order ids, table ids, ...)
	RecordIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// Required checks that a field carries a non-blank value.
func Required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

// RequiredAll checks a set of fields at once. Missing fields are reported in
// sorted order so error messages are stable.
func RequiredAll(fields map[string]string) error {
	var missing []string
	for field, value := range fields {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}
	sort.Strings(missing)
	if len(missing) == 1 {
		return fmt.Errorf("%s is required", missing[0])
	}
	if len(missing) > 1 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ValidateRecordID validates a client-supplied record id.
func ValidateRecordID(field, id string) error {
	if id == "" {
		return nil // server will assign one
	}
	if len(id) > 100 {
		return fmt.Errorf("%s is too long (max 100 characters)", field)
	}
	if !RecordIDRegex.MatchString(id) {
		return fmt.Errorf("invalid %s format", field)
	}
	return nil
}

// ValidateEmail validates email address format.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if len(email) > 254 {
		return fmt.Errorf("email is too long (max 254 characters)")
	}
	if !EmailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}
