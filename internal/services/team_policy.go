package services

import (
	"errors"

	"github.com/agensea/agency-nexus-flow/internal/models"
)

var (
	ErrNotTeamManager       = errors.New("only admins and owners can manage the team")
	ErrNotOrganizationOwner = errors.New("only the organization owner can perform this action")
	ErrOwnerImmutable       = errors.New("the organization owner cannot be removed or re-assigned")
	ErrInvalidMemberRole    = errors.New("role must be one of admin, member or client")
	ErrCannotRemoveYourself = errors.New("cannot remove yourself from the organization")
)

// TeamPolicy holds every rule about who may change team membership.
type TeamPolicy struct{}

// CanManageTeam checks that the actor is an active admin or owner.
func (TeamPolicy) CanManageTeam(actor *models.TeamMember) error {
	if actor == nil || !actor.IsActive() || !actor.Role.CanManageTeam() {
		return ErrNotTeamManager
	}
	return nil
}

// CanDeleteOrganization checks that the actor is the active owner.
func (TeamPolicy) CanDeleteOrganization(actor *models.TeamMember) error {
	if actor == nil || !actor.IsActive() || actor.Role != models.RoleOwner {
		return ErrNotOrganizationOwner
	}
	return nil
}

// ValidateAssignableRole accepts the roles that can be granted by invite or role change.
func (TeamPolicy) ValidateAssignableRole(role models.MemberRole) error {
	switch role {
	case models.RoleAdmin, models.RoleMember, models.RoleClient:
		return nil
	}
	return ErrInvalidMemberRole
}

// CanChangeRole checks a role change of target to role.
func (p TeamPolicy) CanChangeRole(actor, target *models.TeamMember, role models.MemberRole) error {
	if err := p.CanManageTeam(actor); err != nil {
		return err
	}
	if target.Role == models.RoleOwner {
		return ErrOwnerImmutable
	}
	return p.ValidateAssignableRole(role)
}

// CanRemove checks the removal of target from the organization.
func (p TeamPolicy) CanRemove(actor, target *models.TeamMember) error {
	if err := p.CanManageTeam(actor); err != nil {
		return err
	}
	if target.Role == models.RoleOwner {
		return ErrOwnerImmutable
	}
	if target.UserID == actor.UserID {
		return ErrCannotRemoveYourself
	}
	return nil
}
