package cylindersize

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gasledger/internal/core/apperror"
	"gasledger/internal/core/id"
)

type fakeRepo struct {
	sizes      map[id.ID]*CylinderSize
	referenced map[id.ID]bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		sizes:      map[id.ID]*CylinderSize{},
		referenced: map[id.ID]bool{},
	}
}

func (r *fakeRepo) Create(_ context.Context, s *CylinderSize) error {
	r.sizes[s.ID] = s
	return nil
}

func (r *fakeRepo) Get(_ context.Context, _, sizeID id.ID) (*CylinderSize, error) {
	s, ok := r.sizes[sizeID]
	if !ok {
		return nil, apperror.NewNotFound("cylinder size", sizeID.String())
	}
	return s, nil
}

func (r *fakeRepo) ListActive(_ context.Context, _ id.ID) ([]*CylinderSize, error) {
	var out []*CylinderSize
	for _, s := range r.sizes {
		if s.Active {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeRepo) SetActive(_ context.Context, _, sizeID id.ID, active bool) error {
	s, ok := r.sizes[sizeID]
	if !ok {
		return apperror.NewNotFound("cylinder size", sizeID.String())
	}
	s.Active = active
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, _, sizeID id.ID) error {
	if _, ok := r.sizes[sizeID]; !ok {
		return apperror.NewNotFound("cylinder size", sizeID.String())
	}
	delete(r.sizes, sizeID)
	return nil
}

func (r *fakeRepo) IsReferenced(_ context.Context, _, sizeID id.ID) (bool, error) {
	return r.referenced[sizeID], nil
}

func TestRemove_DeletesUnreferencedSize(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	size, err := svc.Create(context.Background(), id.New(), "12L")
	require.NoError(t, err)

	err = svc.Remove(context.Background(), size.TenantID, size.ID)
	require.NoError(t, err)

	// The row is gone, not deactivated.
	_, err = svc.Get(context.Background(), size.TenantID, size.ID)
	assert.Error(t, err)
	assert.NotContains(t, repo.sizes, size.ID)
}

func TestRemove_ReferencedSizeIsRejectedAndKept(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	size, err := svc.Create(context.Background(), id.New(), "35L")
	require.NoError(t, err)
	repo.referenced[size.ID] = true

	err = svc.Remove(context.Background(), size.TenantID, size.ID)
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)

	got, err := svc.Get(context.Background(), size.TenantID, size.ID)
	require.NoError(t, err)
	assert.True(t, got.Active)
}

func TestDeactivate_KeepsRow(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	size, err := svc.Create(context.Background(), id.New(), "45L")
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), size.TenantID, size.ID))

	got, err := svc.Get(context.Background(), size.TenantID, size.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
}
