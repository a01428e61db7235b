package profilestore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"parentcoach/internal/coach/profile"
)

func TestFileStoreParentRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.json")
	store := New(path)

	_, ok := store.Parent("u1")
	require.False(t, ok)

	p := profile.ParentRecord{
		UserID: "u1", Name: "Dana", FamilyContext: "single parent",
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.PutParent(p))

	got, ok := store.Parent("u1")
	require.True(t, ok)
	require.Equal(t, "Dana", got.Name)

	// Writes replace the record wholesale.
	p.Name = "Dana R."
	require.NoError(t, store.PutParent(p))
	got, _ = store.Parent("u1")
	require.Equal(t, "Dana R.", got.Name)
}

func TestFileStoreChildUpsert(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "profiles.json"))

	c1 := profile.ChildRecord{ChildID: "c1", UserID: "u1", Name: "Theo", Age: 9}
	c2 := profile.ChildRecord{ChildID: "c2", UserID: "u1", Name: "Mia", Age: 7}
	require.NoError(t, store.PutChild(c1))
	require.NoError(t, store.PutChild(c2))
	require.Len(t, store.Children("u1"), 2)

	c1.Challenges = "morning routines"
	require.NoError(t, store.PutChild(c1))
	kids := store.Children("u1")
	require.Len(t, kids, 2, "re-putting a child must replace, not append")
	for _, k := range kids {
		if k.ChildID == "c1" {
			require.Equal(t, "morning routines", k.Challenges)
		}
	}

	require.Empty(t, store.Children("u2"))
}

func TestFileStoreIgnoresBlankKeys(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "profiles.json"))

	require.NoError(t, store.PutParent(profile.ParentRecord{Name: "nobody"}))
	require.NoError(t, store.PutChild(profile.ChildRecord{UserID: "u1", Name: "no id"}))

	_, ok := store.Parent("")
	require.False(t, ok)
	require.Empty(t, store.Children("u1"))
}

func TestFileStoreReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.json")
	store := New(path)
	require.NoError(t, store.PutParent(profile.ParentRecord{UserID: "u1", Name: "Dana"}))
	require.NoError(t, store.PutChild(profile.ChildRecord{ChildID: "c1", UserID: "u1", Name: "Theo", Age: 9}))

	reloaded := New(path)
	got, ok := reloaded.Parent("u1")
	require.True(t, ok)
	require.Equal(t, "Dana", got.Name)
	require.Len(t, reloaded.Children("u1"), 1)
}

func TestNilStoreIsSafe(t *testing.T) {
	var store *Store
	_, ok := store.Parent("u1")
	require.False(t, ok)
	require.Empty(t, store.Children("u1"))
	require.NoError(t, store.PutParent(profile.ParentRecord{UserID: "u1"}))
	require.NoError(t, store.Close())
}
