package storage

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"handa/internal/models"
	"handa/internal/registration"
)

func seedLead(t *testing.T, leads registration.LeadStore, family int) *models.HouseholdLead {
	t.Helper()
	lead := &models.HouseholdLead{
		UserID:        1,
		FamilyMembers: family,
		TotalMembers:  1,
		IsFull:        1 >= family,
	}
	require.NoError(t, leads.Create(context.Background(), lead))
	return lead
}

func TestMemoryLeadCreateAssignsHouseholdCode(t *testing.T) {
	leads := NewMemory().Stores().Leads
	lead := seedLead(t, leads, 4)
	assert.NotEmpty(t, lead.HouseholdCode)

	got, err := leads.FindByCode(context.Background(), lead.HouseholdCode)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, lead.ID, got.ID)
}

func TestMemoryIncrementStopsAtCapacity(t *testing.T) {
	ctx := context.Background()
	leads := NewMemory().Stores().Leads
	lead := seedLead(t, leads, 3)

	for i := 0; i < 2; i++ {
		ok, err := leads.IncrementMembers(ctx, lead.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := leads.IncrementMembers(ctx, lead.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := leads.FindByID(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.TotalMembers)
	assert.True(t, got.IsFull)
}

func TestMemoryDecrementFloorsAtZero(t *testing.T) {
	ctx := context.Background()
	leads := NewMemory().Stores().Leads
	lead := seedLead(t, leads, 2)

	for i := 0; i < 5; i++ {
		require.NoError(t, leads.DecrementMembers(ctx, lead.ID))
	}
	got, err := leads.FindByID(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.TotalMembers)
	assert.False(t, got.IsFull)
}

func TestMemoryUpdateCapacityRecomputesFull(t *testing.T) {
	ctx := context.Background()
	leads := NewMemory().Stores().Leads
	lead := seedLead(t, leads, 5)

	ok, err := leads.IncrementMembers(ctx, lead.ID)
	require.NoError(t, err)
	require.True(t, ok) // total now 2

	require.NoError(t, leads.UpdateCapacity(ctx, lead.ID, 2))
	got, err := leads.FindByID(ctx, lead.ID)
	require.NoError(t, err)
	assert.True(t, got.IsFull)

	require.NoError(t, leads.UpdateCapacity(ctx, lead.ID, 10))
	got, err = leads.FindByID(ctx, lead.ID)
	require.NoError(t, err)
	assert.False(t, got.IsFull)
}

func TestMemoryConcurrentIncrements(t *testing.T) {
	ctx := context.Background()
	leads := NewMemory().Stores().Leads
	lead := seedLead(t, leads, 6) // room for 5 more

	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := leads.IncrementMembers(ctx, lead.ID)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, granted)
	got, err := leads.FindByID(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.TotalMembers)
	assert.True(t, got.IsFull)
}

func TestMemoryIdentityEmailUniqueness(t *testing.T) {
	ctx := context.Background()
	ids := NewMemory().Stores().Identities

	require.NoError(t, ids.Create(ctx, &models.User{Email: "a@example.com"}))
	err := ids.Create(ctx, &models.User{Email: "A@Example.com"})
	f, ok := registration.AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, registration.KindDuplicateResource, f.Kind)
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	leads := NewMemory().Stores().Leads
	lead := seedLead(t, leads, 4)

	got, err := leads.FindByID(ctx, lead.ID)
	require.NoError(t, err)
	got.TotalMembers = 99

	again, err := leads.FindByID(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, again.TotalMembers)
}
