package registration

import (
	"context"

	"handa/internal/models"
)

// UpdateCapacity changes a household's declared capacity. Shrinking below the
// current member count is allowed; the household is simply marked full until
// capacity is raised or members are removed.
func (o *Orchestrator) UpdateCapacity(ctx context.Context, leadID uint, familyMembers int) (*models.HouseholdLead, error) {
	if familyMembers < 1 {
		return nil, validationFailed(map[string]string{"family_members": "family_members must be at least 1"})
	}
	lead, err := o.stores.Leads.FindByID(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return nil, failf(KindReferenceNotFound, "household lead %d does not exist", leadID)
	}
	if err := o.stores.Leads.UpdateCapacity(ctx, leadID, familyMembers); err != nil {
		return nil, err
	}
	return o.stores.Leads.FindByID(ctx, leadID)
}

// RemoveMember deletes a member profile together with its identity record and
// releases its slot on the lead's counter. Members count from creation, not
// verification, so removal always decrements.
func (o *Orchestrator) RemoveMember(ctx context.Context, leadID, memberID uint) error {
	member, err := o.stores.Members.FindByID(ctx, memberID)
	if err != nil {
		return err
	}
	if member == nil || member.HouseholdLeadID != leadID {
		return failf(KindReferenceNotFound, "member %d does not belong to this household", memberID)
	}

	remove := func(s Stores) error {
		if err := s.Members.DeleteByID(ctx, member.ID); err != nil {
			return err
		}
		if err := s.Identities.DeleteByID(ctx, member.UserID); err != nil {
			return err
		}
		return s.Leads.DecrementMembers(ctx, member.HouseholdLeadID)
	}
	if o.tx != nil {
		return o.tx.RunInTx(ctx, remove)
	}
	return remove(o.stores)
}

// RemoveHousehold deletes a lead profile and its identity. Deletion is
// forbidden while members are still registered; the caller must remove them
// first.
func (o *Orchestrator) RemoveHousehold(ctx context.Context, leadID uint) error {
	lead, err := o.stores.Leads.FindByID(ctx, leadID)
	if err != nil {
		return err
	}
	if lead == nil {
		return failf(KindReferenceNotFound, "household lead %d does not exist", leadID)
	}
	members, err := o.stores.Members.ListByLead(ctx, leadID)
	if err != nil {
		return err
	}
	if len(members) > 0 {
		return validationFailed(map[string]string{
			"members": "household still has registered members; remove them before deleting the household",
		})
	}

	remove := func(s Stores) error {
		if err := s.Leads.DeleteByID(ctx, lead.ID); err != nil {
			return err
		}
		return s.Identities.DeleteByID(ctx, lead.UserID)
	}
	if o.tx != nil {
		return o.tx.RunInTx(ctx, remove)
	}
	return remove(o.stores)
}

// Members lists a household's member profiles.
func (o *Orchestrator) Members(ctx context.Context, leadID uint) ([]models.HouseholdMember, error) {
	return o.stores.Members.ListByLead(ctx, leadID)
}

// Lead returns the lead profile owned by userID, or nil.
func (o *Orchestrator) Lead(ctx context.Context, userID uint) (*models.HouseholdLead, error) {
	return o.stores.Leads.FindByOwner(ctx, userID)
}
