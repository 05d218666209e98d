package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"hearth/internal/core"
	"hearth/internal/storage"
)

// InviteTTL is how long an invite token stays acceptable.
const InviteTTL = 7 * 24 * time.Hour

var (
	ErrNotOwner       = errors.New("only the family owner can do this")
	ErrOwnerImmovable = errors.New("the family owner cannot be removed")
	ErrInviteExpired  = errors.New("invite expired")
	ErrInviteConsumed = errors.New("invite already used or revoked")
	ErrWrongInvitee   = errors.New("invite was issued for a different email")
)

// FamilyService manages families, memberships and the invite lifecycle.
type FamilyService struct {
	store *storage.Store
}

func NewFamilyService(store *storage.Store) *FamilyService {
	return &FamilyService{store: store}
}

// Create makes a new family with the given user as owner. Users already
// in a family cannot create another one.
func (s *FamilyService) Create(ctx context.Context, name string, ownerID int64) (core.Family, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Family{}, core.ErrEmptyName
	}

	now := time.Now()
	id, err := s.store.CreateFamilyWithOwner(ctx, name, ownerID, now)
	if err != nil {
		return core.Family{}, err
	}

	slog.InfoContext(ctx, "Family created", "family_id", id, "owner_id", ownerID)
	return core.Family{ID: id, Name: name, CreatedAt: now}, nil
}

func (s *FamilyService) Get(ctx context.Context, id int64) (core.Family, error) {
	return s.store.GetFamily(ctx, id)
}

// Invite issues a single-use token for an email, valid for InviteTTL.
// Only the owner may invite.
func (s *FamilyService) Invite(ctx context.Context, familyID int64, role core.Role, email string) (core.Invite, error) {
	if role != core.RoleOwner {
		return core.Invite{}, ErrNotOwner
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") {
		return core.Invite{}, core.ErrInvalidEmail
	}

	now := time.Now()
	inv := core.Invite{
		FamilyID:  familyID,
		Email:     email,
		Token:     uuid.NewString(),
		CreatedAt: now,
		ExpiresAt: now.Add(InviteTTL),
	}
	id, err := s.store.CreateInvite(ctx, inv)
	if err != nil {
		return core.Invite{}, fmt.Errorf("create invite: %w", err)
	}
	inv.ID = id

	slog.InfoContext(ctx, "Invite created",
		"family_id", familyID,
		"email", email,
		"expires_at", inv.ExpiresAt.Format(time.RFC3339))
	return inv, nil
}

// Accept joins the user to the inviting family as a member. The token
// must be pending, unexpired and issued for the user's email.
func (s *FamilyService) Accept(ctx context.Context, token string, user core.User) (core.Family, error) {
	inv, err := s.store.GetInviteByToken(ctx, token)
	if err != nil {
		return core.Family{}, err
	}

	now := time.Now()
	if !inv.AcceptedAt.IsZero() || !inv.RevokedAt.IsZero() {
		return core.Family{}, ErrInviteConsumed
	}
	if inv.Expired(now) {
		return core.Family{}, ErrInviteExpired
	}
	if !strings.EqualFold(inv.Email, user.Email) {
		return core.Family{}, ErrWrongInvitee
	}

	if err := s.store.AcceptInvite(ctx, inv.ID, user.ID, now); err != nil {
		return core.Family{}, err
	}

	slog.InfoContext(ctx, "Invite accepted",
		"family_id", inv.FamilyID,
		"user_id", user.ID)
	return s.store.GetFamily(ctx, inv.FamilyID)
}

// Revoke cancels a pending invite. Owner only.
func (s *FamilyService) Revoke(ctx context.Context, familyID, inviteID int64, role core.Role) error {
	if role != core.RoleOwner {
		return ErrNotOwner
	}
	return s.store.RevokeInvite(ctx, inviteID, familyID, time.Now())
}

// PendingInvites lists a family's open invites. Owner only.
func (s *FamilyService) PendingInvites(ctx context.Context, familyID int64, role core.Role) ([]core.Invite, error) {
	if role != core.RoleOwner {
		return nil, ErrNotOwner
	}
	return s.store.ListPendingInvites(ctx, familyID)
}

// Members lists everyone in the family, owners first.
func (s *FamilyService) Members(ctx context.Context, familyID int64) ([]core.User, error) {
	return s.store.ListFamilyMembers(ctx, familyID)
}

// RemoveMember detaches a member from the family. Owner only, and the
// owner cannot remove themselves.
func (s *FamilyService) RemoveMember(ctx context.Context, familyID, memberID int64, role core.Role) error {
	if role != core.RoleOwner {
		return ErrNotOwner
	}

	member, err := s.store.GetUserByID(ctx, memberID)
	if err != nil {
		return err
	}
	if member.FamilyID != familyID {
		return fmt.Errorf("user %d: %w", memberID, storage.ErrNotFound)
	}
	if member.Role == core.RoleOwner {
		return ErrOwnerImmovable
	}

	if err := s.store.RemoveUserFromFamily(ctx, memberID); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Member removed", "family_id", familyID, "user_id", memberID)
	return nil
}
