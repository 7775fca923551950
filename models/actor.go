package models

import "slices"

// Actor is the authenticated caller of a write operation.
type Actor struct {
	UserID string
	Roles  []string
}

func (a Actor) Authenticated() bool { return a.UserID != "" }

func (a Actor) Has(role string) bool { return slices.Contains(a.Roles, role) }

// CanManage reports whether a may edit or delete content owned by authorID.
func (a Actor) CanManage(authorID string) bool {
	if !a.Authenticated() {
		return false
	}
	return a.UserID == authorID || a.Has("admin")
}

// CanPublish reports whether a may create content.
func (a Actor) CanPublish() bool {
	return a.Has("admin") || a.Has("editor")
}
