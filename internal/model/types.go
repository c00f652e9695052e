package model

import "time"

// Setting is a two-state visibility flag used by container settings.
type Setting string

const (
	SettingPublic  Setting = "public"
	SettingPrivate Setting = "private"
)

// Valid reports whether s is one of the two recognised values.
func (s Setting) Valid() bool {
	return s == SettingPublic || s == SettingPrivate
}

// LinkType identifies the direction of a link formation action.
type LinkType string

const (
	// LinkGet attaches the initiating container as a child of a parent.
	LinkGet LinkType = "getLink"
	// LinkPut attaches a child under the initiating container.
	LinkPut LinkType = "putLink"
)

// Valid reports whether t is one of the two recognised link types.
func (t LinkType) Valid() bool {
	return t == LinkGet || t == LinkPut
}

// ContainerSettings holds the four independent visibility gates.
// Scope drives name uniqueness, Searching drives name search, and
// GetLink/PutLink gate edge formation.
type ContainerSettings struct {
	Scope     Setting `json:"scope"`
	GetLink   Setting `json:"getLink"`
	PutLink   Setting `json:"putLink"`
	Searching Setting `json:"searching"`
}

// Valid reports whether every gate carries a recognised value.
func (cs ContainerSettings) Valid() bool {
	return cs.Scope.Valid() && cs.GetLink.Valid() && cs.PutLink.Valid() && cs.Searching.Valid()
}

// Container is a node in the ownership DAG. Parents and Children are
// id sets kept bidirectionally consistent: A lists B as parent iff
// B lists A as child.
type Container struct {
	ContainerID  string            `json:"containerId"`
	OwnerID      string            `json:"ownerId"`
	Name         string            `json:"name"`
	Settings     ContainerSettings `json:"settings"`
	Parents      []string          `json:"parents"`
	Children     []string          `json:"children"`
	CreationTime time.Time         `json:"creationTime"`
}

// HasParent reports whether parentID is in the container's parent set.
func (c *Container) HasParent(parentID string) bool {
	for _, id := range c.Parents {
		if id == parentID {
			return true
		}
	}
	return false
}

// HasChild reports whether childID is in the container's child set.
func (c *Container) HasChild(childID string) bool {
	for _, id := range c.Children {
		if id == childID {
			return true
		}
	}
	return false
}

// LinkRequest is a pending proposal to create one edge. At most one
// outstanding request exists per (RequestedBy, TargetContainer, Link).
type LinkRequest struct {
	RequestID       string    `json:"requestId"`
	RequestedBy     string    `json:"requestedBy"`     // initiating container
	TargetContainer string    `json:"targetContainer"` // gate-owning container
	RequesteeID     string    `json:"requesteeId"`     // owner of the target
	Link            LinkType  `json:"link"`
	CreationTime    time.Time `json:"creationTime"`
}

// Topic is a content record anchored to exactly one container.
type Topic struct {
	TopicID      string    `json:"topicId"`
	OriginID     string    `json:"originId"`
	Name         string    `json:"name"`
	Content      string    `json:"content"`
	CreationTime time.Time `json:"creationTime"`
}

// User is an account able to own containers.
type User struct {
	UserID       string    `json:"userId"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreationTime time.Time `json:"creationTime"`
}

// TimeRange is an inclusive creation-time window.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the window, bounds included.
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// AncestrySearchRequest captures the inputs of an upward topic search.
type AncestrySearchRequest struct {
	StartContainerID string
	MaxResults       int
	TimeRange        TimeRange
	Avoid            []string
}
