package groups

import (
	"context"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/nimbus-retail/nimbus-retail/internal/shared"
)

type memoryGroupRepo struct {
	groups map[int64]*AccountGroup
	nextID int64
}

func newMemoryGroupRepo() *memoryGroupRepo {
	return &memoryGroupRepo{groups: make(map[int64]*AccountGroup)}
}

func (r *memoryGroupRepo) Create(ctx context.Context, group AccountGroup) (AccountGroup, error) {
	r.nextID++
	group.ID = r.nextID
	if group.ParentGroupID != nil {
		pid := *group.ParentGroupID
		group.ParentGroupID = &pid
	}
	group.CreatedAt = time.Now()
	group.UpdatedAt = group.CreatedAt
	r.groups[group.ID] = &group
	return group, nil
}

func (r *memoryGroupRepo) Get(ctx context.Context, companyID, id int64) (AccountGroup, error) {
	g, ok := r.groups[id]
	if !ok || g.IsDeleted || g.CompanyID != companyID {
		return AccountGroup{}, shared.ErrNotFound
	}
	return *g, nil
}

func (r *memoryGroupRepo) List(ctx context.Context, companyID int64) ([]AccountGroup, error) {
	var out []AccountGroup
	for _, g := range r.groups {
		if !g.IsDeleted && g.CompanyID == companyID {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (r *memoryGroupRepo) Update(ctx context.Context, group AccountGroup) error {
	g, ok := r.groups[group.ID]
	if !ok || g.IsDeleted {
		return shared.ErrNotFound
	}
	group.CreatedAt = g.CreatedAt
	group.UpdatedAt = time.Now()
	r.groups[group.ID] = &group
	return nil
}

func (r *memoryGroupRepo) UpdateLevel(ctx context.Context, companyID, id int64, level int) error {
	g, ok := r.groups[id]
	if !ok || g.IsDeleted {
		return shared.ErrNotFound
	}
	g.GroupLevel = level
	return nil
}

func (r *memoryGroupRepo) SoftDelete(ctx context.Context, companyID, id int64) error {
	g, ok := r.groups[id]
	if !ok || g.IsDeleted {
		return shared.ErrNotFound
	}
	g.IsDeleted = true
	return nil
}

func (r *memoryGroupRepo) FindActiveByName(ctx context.Context, companyID int64, name string) (*AccountGroup, error) {
	for _, g := range r.groups {
		if !g.IsDeleted && g.CompanyID == companyID && strings.EqualFold(g.Name, name) {
			dup := *g
			return &dup, nil
		}
	}
	return nil, nil
}

func (r *memoryGroupRepo) ListChildren(ctx context.Context, companyID, parentID int64) ([]AccountGroup, error) {
	var out []AccountGroup
	for _, g := range r.groups {
		if !g.IsDeleted && g.CompanyID == companyID && g.ParentGroupID != nil && *g.ParentGroupID == parentID {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (r *memoryGroupRepo) ParentOf(ctx context.Context, companyID, groupID int64) (*int64, error) {
	g, ok := r.groups[groupID]
	if !ok || g.IsDeleted || g.CompanyID != companyID {
		return nil, shared.ErrNotFound
	}
	return g.ParentGroupID, nil
}

func (r *memoryGroupRepo) WithTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error {
	return fn(ctx, r)
}

func TestCreateAssignsLevels(t *testing.T) {
	repo := newMemoryGroupRepo()
	svc := NewService(repo, nil, nil)

	root, err := svc.Create(context.Background(), CreateGroupInput{CompanyID: 1, Name: "Current Assets", Nature: NatureAssets})
	require.NoError(t, err)
	require.Equal(t, 0, root.GroupLevel)

	child, err := svc.Create(context.Background(), CreateGroupInput{CompanyID: 1, Name: "Bank Accounts", Nature: NatureAssets, ParentGroupID: &root.ID})
	require.NoError(t, err)
	require.Equal(t, 1, child.GroupLevel)
}

func TestCreateRejectsDuplicateName(t *testing.T) {
	repo := newMemoryGroupRepo()
	svc := NewService(repo, nil, nil)

	_, err := svc.Create(context.Background(), CreateGroupInput{CompanyID: 1, Name: "Expenses", Nature: NatureExpenses})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateGroupInput{CompanyID: 1, Name: "expenses", Nature: NatureExpenses})
	require.ErrorIs(t, err, shared.ErrConflict)

	// Same name is fine for another company.
	_, err = svc.Create(context.Background(), CreateGroupInput{CompanyID: 2, Name: "Expenses", Nature: NatureExpenses})
	require.NoError(t, err)
}

func TestCreateRejectsMissingParent(t *testing.T) {
	svc := NewService(newMemoryGroupRepo(), nil, nil)

	missing := int64(404)
	_, err := svc.Create(context.Background(), CreateGroupInput{CompanyID: 1, Name: "Orphan", Nature: NatureIncome, ParentGroupID: &missing})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreateEnforcesDepthBound(t *testing.T) {
	repo := newMemoryGroupRepo()
	svc := NewService(repo, nil, nil)

	parent, err := svc.Create(context.Background(), CreateGroupInput{CompanyID: 1, Name: "L0", Nature: NatureAssets})
	require.NoError(t, err)
	for i := 1; i <= MaxGroupLevel; i++ {
		parent, err = svc.Create(context.Background(), CreateGroupInput{CompanyID: 1, Name: "L" + string(rune('0'+i)), Nature: NatureAssets, ParentGroupID: &parent.ID})
		require.NoError(t, err)
		require.Equal(t, i, parent.GroupLevel)
	}

	_, err = svc.Create(context.Background(), CreateGroupInput{CompanyID: 1, Name: "Too Deep", Nature: NatureAssets, ParentGroupID: &parent.ID})
	require.ErrorIs(t, err, ErrDepthExceeded)
}

func TestUpdateRelevelsDescendants(t *testing.T) {
	repo := newMemoryGroupRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	rootA, err := svc.Create(ctx, CreateGroupInput{CompanyID: 1, Name: "A", Nature: NatureAssets})
	require.NoError(t, err)
	rootB, err := svc.Create(ctx, CreateGroupInput{CompanyID: 1, Name: "B", Nature: NatureAssets})
	require.NoError(t, err)
	mid, err := svc.Create(ctx, CreateGroupInput{CompanyID: 1, Name: "Mid", Nature: NatureAssets, ParentGroupID: &rootA.ID})
	require.NoError(t, err)
	leaf, err := svc.Create(ctx, CreateGroupInput{CompanyID: 1, Name: "Leaf", Nature: NatureAssets, ParentGroupID: &mid.ID})
	require.NoError(t, err)
	require.Equal(t, 2, leaf.GroupLevel)

	// Move Mid under root B's subtree (same depth, levels unchanged)...
	_, err = svc.Update(ctx, 1, mid.ID, UpdateGroupInput{ParentGroupID: &rootB.ID, ParentSet: true})
	require.NoError(t, err)

	// ...then promote Mid to a root and check Leaf followed.
	_, err = svc.Update(ctx, 1, mid.ID, UpdateGroupInput{ParentSet: true})
	require.NoError(t, err)

	got, err := svc.Get(ctx, 1, mid.ID)
	require.NoError(t, err)
	require.Equal(t, 0, got.GroupLevel)
	require.Nil(t, got.ParentGroupID)

	got, err = svc.Get(ctx, 1, leaf.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.GroupLevel)
}

func TestUpdateRejectsCycle(t *testing.T) {
	repo := newMemoryGroupRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	root, err := svc.Create(ctx, CreateGroupInput{CompanyID: 1, Name: "Root", Nature: NatureLiabilities})
	require.NoError(t, err)
	child, err := svc.Create(ctx, CreateGroupInput{CompanyID: 1, Name: "Child", Nature: NatureLiabilities, ParentGroupID: &root.ID})
	require.NoError(t, err)

	_, err = svc.Update(ctx, 1, root.ID, UpdateGroupInput{ParentGroupID: &child.ID, ParentSet: true})
	require.ErrorIs(t, err, ErrCircularReference)
}

func TestSoftDeleteKeepsParentsOfChildren(t *testing.T) {
	repo := newMemoryGroupRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	root, err := svc.Create(ctx, CreateGroupInput{CompanyID: 1, Name: "Root", Nature: NatureIncome})
	require.NoError(t, err)
	child, err := svc.Create(ctx, CreateGroupInput{CompanyID: 1, Name: "Child", Nature: NatureIncome, ParentGroupID: &root.ID})
	require.NoError(t, err)

	require.ErrorIs(t, svc.SoftDelete(ctx, 1, root.ID), shared.ErrConflict)

	require.NoError(t, svc.SoftDelete(ctx, 1, child.ID))
	require.NoError(t, svc.SoftDelete(ctx, 1, root.ID))

	_, err = svc.Get(ctx, 1, root.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestListUsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	repo := newMemoryGroupRepo()
	svc := NewService(repo, NewCache(client, time.Minute), nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateGroupInput{CompanyID: 1, Name: "Assets", Nature: NatureAssets})
	require.NoError(t, err)

	list, err := svc.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)

	// Mutate the store behind the cache; the cached tree must still serve.
	repo.groups[created.ID].Name = "Changed"
	list, err = svc.List(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "Assets", list[0].Name)

	// A write invalidates and the next read sees fresh data.
	_, err = svc.Create(ctx, CreateGroupInput{CompanyID: 1, Name: "Liabilities", Nature: NatureLiabilities})
	require.NoError(t, err)
	list, err = svc.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
}
