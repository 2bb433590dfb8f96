package room

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"parley/internal/domain"
)

// Member is the slice of a session a room needs: a stable handle, a display
// address and an encrypted send.
type Member interface {
	Handle() domain.Handle
	Addr() string
	Send(plaintext string) error
}

// Room is a named broadcast group with an optional entry key.
type Room struct {
	name       string
	secretHash []byte
	members    []Member
}

// New returns an unprotected empty room.
func New(name string) *Room { return &Room{name: name} }

// Name returns the registry key of the room.
func (r *Room) Name() string { return r.name }

// Protected reports whether entry requires a key.
func (r *Room) Protected() bool { return r.secretHash != nil }

// Len returns the current member count.
func (r *Room) Len() int { return len(r.members) }

// SetSecret protects the room with key. Only the creator sets it, at
// creation; the plaintext is not retained.
func (r *Room) SetSecret(key string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash room key: %w", err)
	}
	r.secretHash = hash
	return nil
}

// CheckSecret reports whether key matches the room's entry key.
func (r *Room) CheckSecret(key string) bool {
	return bcrypt.CompareHashAndPassword(r.secretHash, []byte(key)) == nil
}

// Contains reports whether the session identified by h is a member.
func (r *Room) Contains(h domain.Handle) bool {
	for _, m := range r.members {
		if m.Handle() == h {
			return true
		}
	}
	return false
}

// Join appends m and notifies the room. Existing members see a joined
// notice; the joiner gets a personalized acknowledgment with the post-join
// count of other members. Members whose send failed are returned.
func (r *Room) Join(m Member) (failed []Member) {
	r.members = append(r.members, m)

	notice := fmt.Sprintf("[%s] has joined room '%s'", m.Addr(), r.name)
	protected := " "
	if r.Protected() {
		protected = " protected "
	}
	ack := fmt.Sprintf("Joined%sroom '%s' (%d client(s) present)", protected, r.name, len(r.members)-1)

	for _, member := range r.members {
		msg := notice
		if member.Handle() == m.Handle() {
			msg = ack
		}
		if err := member.Send(msg); err != nil {
			failed = append(failed, member)
		}
	}
	return failed
}

// Leave removes m, acknowledges to it, then notifies the remaining members.
// The departed member does not receive the second notice.
func (r *Room) Leave(m Member) (failed []Member) {
	r.Purge(m.Handle())

	if err := m.Send(fmt.Sprintf("Left room '%s'", r.name)); err != nil {
		failed = append(failed, m)
	}
	notice := fmt.Sprintf("[%s] has left room '%s'", m.Addr(), r.name)
	for _, member := range r.members {
		if err := member.Send(notice); err != nil {
			failed = append(failed, member)
		}
	}
	return failed
}

// Purge removes the session identified by h without sending anything. Used
// when the connection is already gone and no reply can be delivered.
func (r *Room) Purge(h domain.Handle) {
	for i, m := range r.members {
		if m.Handle() == h {
			r.members = append(r.members[:i], r.members[i+1:]...)
			return
		}
	}
}

// Broadcast fans text out to every member. The sender receives ack instead
// of an echo; everyone else receives the text prefixed with the sender's
// address. Each recipient gets an independently sealed envelope.
func (r *Room) Broadcast(sender Member, text, ack string) (failed []Member) {
	tagged := fmt.Sprintf("[%s] %s", sender.Addr(), text)
	for _, member := range r.members {
		msg := tagged
		if member.Handle() == sender.Handle() {
			msg = ack
		}
		if err := member.Send(msg); err != nil {
			failed = append(failed, member)
		}
	}
	return failed
}
