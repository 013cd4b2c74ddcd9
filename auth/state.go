package auth

import "github.com/jrsteele09/sprinkler-crm/backend"

// State is a point in time copy of the session store.
type State struct {
	User        *backend.User
	Session     *backend.Session
	Loading     bool
	Error       string
	Initialized bool
}

func (s State) IsAuthenticated() bool {
	return s.User != nil
}

func (s State) UserEmail() string {
	if s.User == nil {
		return ""
	}
	return s.User.Email
}

// UserName is the provider's full name, falling back to the email address.
func (s State) UserName() string {
	if s.User == nil {
		return ""
	}
	if s.User.UserMetadata.FullName != "" {
		return s.User.UserMetadata.FullName
	}
	return s.User.Email
}

func (s State) UserAvatar() string {
	if s.User == nil {
		return ""
	}
	return s.User.UserMetadata.AvatarURL
}

func userOf(session *backend.Session) *backend.User {
	if session == nil {
		return nil
	}
	u := session.User
	return &u
}
