package baseline

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"cssw/css"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(MemoryPath, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_SaveLoad(t *testing.T) {
	s := openMemory(t)
	e := css.NewEngine(zaptest.NewLogger(t), css.WithNamespace("p"))

	doc := e.Parse(".a { color: red; }\n@media print { .b { top: 0; } }")
	require.NoError(t, s.Save("theme", doc))

	text, err := s.LoadText("theme")
	require.NoError(t, err)
	assert.Equal(t, doc.String(), text)

	loaded, err := s.Load(e, "theme")
	require.NoError(t, err)
	assert.Equal(t, doc.String(), loaded.String())
}

func TestStore_SaveReplaces(t *testing.T) {
	s := openMemory(t)
	e := css.NewEngine(nil)

	stamp := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return stamp }

	require.NoError(t, s.Save("theme", e.Parse(".a { color: red; }")))
	require.NoError(t, s.Save("theme", e.Parse(".a { color: blue; }\n.b { top: 0; }")))

	text, err := s.LoadText("theme")
	require.NoError(t, err)
	assert.Contains(t, text, "blue")

	entries, err := s.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 2, entries[0].Blocks)
	assert.Equal(t, len(text), entries[0].Size)
	assert.True(t, entries[0].Updated.Equal(stamp))
}

func TestStore_NotFound(t *testing.T) {
	s := openMemory(t)

	_, err := s.LoadText("absent")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, _, err = s.Reconcile(css.NewEngine(nil), "absent", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_DeleteAndIDs(t *testing.T) {
	s := openMemory(t)
	e := css.NewEngine(nil)

	for _, id := range []string{"page-10", "page-2", "page-1"} {
		require.NoError(t, s.Save(id, e.Parse(".a { top: 0; }")))
	}

	ids, err := s.IDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"page-1", "page-2", "page-10"}, ids)

	deleted, err := s.Delete("page-2")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = s.Delete("page-2")
	require.NoError(t, err)
	assert.False(t, deleted)

	ids, err = s.IDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"page-1", "page-10"}, ids)
}

func TestStore_Reconcile(t *testing.T) {
	s := openMemory(t)
	e := css.NewEngine(nil)

	require.NoError(t, s.Save("theme", e.Parse(".a { color: red; margin: 0; }\n.gone { top: 0; }")))

	live := e.Parse(".a { color: blue; margin: 0; }\n.new { left: 0; }")
	patch, removed, err := s.Reconcile(e, "theme", live)
	require.NoError(t, err)

	assert.Equal(t, []string{".gone"}, removed)
	require.Len(t, patch, 2)
	assert.Equal(t, ".a", patch[0].Selector)
	assert.Equal(t, []css.Rule{{Directive: "color", Value: "blue"}}, patch[0].Rules)
	assert.Equal(t, ".new", patch[1].Selector)

	base, err := s.Load(e, "theme")
	require.NoError(t, err)
	css.ApplyPatch(&base, patch, removed)
	assert.Equal(t, live.String(), base.String())
}

func TestStore_FilePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baselines.db")
	e := css.NewEngine(nil)

	s, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Save("theme", e.Parse(".a { top: 0; }")))
	require.NoError(t, s.Close())

	s, err = Open(path, nil)
	require.NoError(t, err)
	defer s.Close()

	ids, err := s.IDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"theme"}, ids)
}
