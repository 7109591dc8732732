package library

import (
	"fmt"
	"log/slog"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/crypto/bcrypt"
)

// MemberRegistry owns registered borrowers and their credentials.
type MemberRegistry struct {
	members []*Member
	store   *storage
	log     *slog.Logger
}

// NewMemberRegistry loads the member file, skipping malformed records.
func NewMemberRegistry(store *storage, log *slog.Logger) (*MemberRegistry, error) {
	mr := &MemberRegistry{store: store, log: log}
	err := store.loadRecords(membersFile, func(raw jsoniter.RawMessage) error {
		var m Member
		if err := json.Unmarshal(raw, &m); err != nil {
			return err
		}
		if m.ID == "" || strings.TrimSpace(m.Name) == "" {
			return fmt.Errorf("member missing required fields")
		}
		mr.members = append(mr.members, &m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mr, nil
}

func (mr *MemberRegistry) persist() error {
	return mr.store.save(membersFile, mr.members)
}

// Register adds a member with a bcrypt-hashed password and returns the new
// member id.
func (mr *MemberRegistry) Register(name, password string) (*Member, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("member name cannot be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	ids := make([]string, len(mr.members))
	for i, m := range mr.members {
		ids[i] = m.ID
	}
	m := &Member{ID: nextPrefixedID("U", ids), Name: name, PasswordHash: string(hash)}
	mr.members = append(mr.members, m)

	if err := mr.persist(); err != nil {
		return nil, err
	}
	mr.log.Debug("member registered", "member", m.ID)
	out := *m
	return &out, nil
}

// Authenticate verifies a member's password.
func (mr *MemberRegistry) Authenticate(memberID, password string) error {
	m := mr.byID(memberID)
	if m == nil {
		return fmt.Errorf("member %q: %w", memberID, ErrNotFound)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(password)); err != nil {
		return fmt.Errorf("invalid password for member %q", memberID)
	}
	return nil
}

// ResetPassword replaces a member's password hash.
func (mr *MemberRegistry) ResetPassword(memberID, newPassword string) error {
	m := mr.byID(memberID)
	if m == nil {
		return fmt.Errorf("member %q: %w", memberID, ErrNotFound)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	m.PasswordHash = string(hash)
	return mr.persist()
}

// Find returns a snapshot of the member, or ErrNotFound.
func (mr *MemberRegistry) Find(memberID string) (*Member, error) {
	m := mr.byID(memberID)
	if m == nil {
		return nil, fmt.Errorf("member %q: %w", memberID, ErrNotFound)
	}
	out := *m
	return &out, nil
}

// All returns every member in registration order.
func (mr *MemberRegistry) All() []*Member {
	out := make([]*Member, len(mr.members))
	for i, m := range mr.members {
		dup := *m
		out[i] = &dup
	}
	return out
}

func (mr *MemberRegistry) byID(id string) *Member {
	for _, m := range mr.members {
		if m.ID == id {
			return m
		}
	}
	return nil
}
