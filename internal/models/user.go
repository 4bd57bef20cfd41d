package models

// User is the profile record returned by the auth and user services.
type User struct {
	ID             string  `json:"id"`
	Username       string  `json:"username"`
	Email          string  `json:"email,omitempty"`
	FirstName      string  `json:"firstName"`
	LastName       string  `json:"lastName"`
	Avatar         *string `json:"avatar"`
	Bio            *string `json:"bio,omitempty"`
	Location       *string `json:"location,omitempty"`
	Website        *string `json:"website,omitempty"`
	IsVerified     bool    `json:"isVerified"`
	FollowersCount int     `json:"followersCount"`
	FollowingCount int     `json:"followingCount"`
	PostsCount     int     `json:"postsCount"`
}

// DisplayName returns "First Last" falling back to the username.
func (u User) DisplayName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Username
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Session is the authenticated identity held by the session store.
type Session struct {
	User          User   `json:"user"`
	AccessToken   string `json:"accessToken"`
	RefreshToken  string `json:"refreshToken,omitempty"`
	Authenticated bool   `json:"authenticated"`
}

// Credentials is the payload issued by the auth service on login/registration.
type Credentials struct {
	User         User   `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}
