package views

import (
	"context"
	"sync"
)

// Contact is one entry of the contact list.
type Contact struct {
	ID       string
	Username string
}

// ContactsView lists the users the viewer follows, the peer candidates for
// starting a conversation. An empty list is a valid state, not an error.
type ContactsView struct {
	social SocialService

	mu       sync.Mutex
	contacts []Contact
}

// NewContactsView builds an empty contacts view.
func NewContactsView(social SocialService) *ContactsView {
	return &ContactsView{social: social}
}

// Load fetches the viewer's following list.
func (v *ContactsView) Load(ctx context.Context, selfID string) error {
	users, err := v.social.Following(ctx, selfID)
	if err != nil {
		return err
	}

	contacts := make([]Contact, 0, len(users))
	for _, u := range users {
		contacts = append(contacts, Contact{ID: u.ID, Username: u.Username})
	}

	v.mu.Lock()
	v.contacts = contacts
	v.mu.Unlock()
	return nil
}

// Empty reports whether the viewer follows nobody.
func (v *ContactsView) Empty() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.contacts) == 0
}

// Contacts returns a copy of the loaded contact list.
func (v *ContactsView) Contacts() []Contact {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Contact, len(v.contacts))
	copy(out, v.contacts)
	return out
}
