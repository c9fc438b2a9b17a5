package models

import "strings"

type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserPatch holds a partial user update. Only set, non-blank values overwrite.
type UserPatch struct {
	Name  Optional[string] `json:"name"`
	Email Optional[string] `json:"email"`
}

func (p UserPatch) Apply(user *User) {
	if v, ok := p.Name.Get(); ok && strings.TrimSpace(v) != "" {
		user.Name = v
	}
	if v, ok := p.Email.Get(); ok && strings.TrimSpace(v) != "" {
		user.Email = v
	}
}
