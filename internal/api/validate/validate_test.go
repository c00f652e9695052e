package validate

import (
	"strings"
	"testing"
)

func TestContainerName(t *testing.T) {
	valid := []string{"a", "garden-notes", "My Container_2"}
	for _, v := range valid {
		if err := ContainerName(v); err != nil {
			t.Errorf("ContainerName(%q): unexpected error %v", v, err)
		}
	}

	invalid := []string{"", " leading-space", "bad/slash", "semi;colon", strings.Repeat("x", 101)}
	for _, v := range invalid {
		if err := ContainerName(v); err == nil {
			t.Errorf("ContainerName(%q): want error", v)
		}
	}
}

func TestTopicName(t *testing.T) {
	if err := TopicName("harvest-plan"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	for _, v := range []string{"", "no\ttabs", strings.Repeat("x", 101)} {
		if err := TopicName(v); err == nil {
			t.Errorf("TopicName(%q): want error", v)
		}
	}
}

func TestUsername(t *testing.T) {
	for _, v := range []string{"alice", "bob_42", "a_b"} {
		if err := Username(v); err != nil {
			t.Errorf("Username(%q): unexpected error %v", v, err)
		}
	}
	for _, v := range []string{"", "ab", "Alice", "way-too-hyphenated", strings.Repeat("a", 31)} {
		if err := Username(v); err == nil {
			t.Errorf("Username(%q): want error", v)
		}
	}
}

func TestPassword(t *testing.T) {
	if err := Password("longenough"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := Password("short"); err == nil {
		t.Error("short password: want error")
	}
	if err := Password(strings.Repeat("x", 73)); err == nil {
		t.Error("oversized password: want error")
	}
}

func TestNonEmpty(t *testing.T) {
	if err := NonEmpty("containerId", "abc"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	err := NonEmpty("containerId", "")
	if err == nil || !strings.Contains(err.Error(), "containerId") {
		t.Errorf("want error naming the field, got %v", err)
	}
}
