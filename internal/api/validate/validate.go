package validate

import (
	"fmt"
	"regexp"
)

// nameRx allows letters, digits, spaces, hyphen and underscore. Names
// are scoped identifiers, not free text.
var nameRx = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 _-]*$`)

// usernameRx: lowercase letters, digits, underscore, 3-30 chars.
var usernameRx = regexp.MustCompile(`^[a-z0-9_]{3,30}$`)

// ContainerName validates a container name:
// - 1-100 bytes
// - letters/digits/space/hyphen/underscore, no leading space
func ContainerName(v string) error {
	if v == "" {
		return fmt.Errorf("name is required")
	}
	if len(v) > 100 {
		return fmt.Errorf("name exceeds 100 characters")
	}
	if !nameRx.MatchString(v) {
		return fmt.Errorf("name contains invalid characters; allowed letters, digits, space, hyphen, underscore")
	}
	return nil
}

// TopicName applies the same rules as container names.
func TopicName(v string) error {
	if v == "" {
		return fmt.Errorf("topic name is required")
	}
	if len(v) > 100 {
		return fmt.Errorf("topic name exceeds 100 characters")
	}
	if !nameRx.MatchString(v) {
		return fmt.Errorf("topic name contains invalid characters")
	}
	return nil
}

// Username validates a login name.
func Username(v string) error {
	if v == "" {
		return fmt.Errorf("username is required")
	}
	if !usernameRx.MatchString(v) {
		return fmt.Errorf("username must be 3-30 lowercase letters, digits or underscore")
	}
	return nil
}

// Password enforces a length floor only; composition rules are the
// caller's business.
func Password(v string) error {
	if len(v) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	if len(v) > 72 {
		// bcrypt truncates beyond 72 bytes
		return fmt.Errorf("password exceeds 72 characters")
	}
	return nil
}

// NonEmpty reports an error naming the field when v is empty.
func NonEmpty(field, v string) error {
	if v == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}
