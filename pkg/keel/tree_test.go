package keel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(nodes []*TreeNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name()
	}
	return out
}

func TestBuildModuleTree_Order(t *testing.T) {
	shared := NewModule("shared")
	users := NewModule("users", Imports(shared))
	orders := NewModule("orders", Imports(shared, users))
	root := NewModule("app", Imports(users, orders))

	tree, err := BuildModuleTree(root)
	require.NoError(t, err)

	assert.Equal(t, 4, tree.Len())
	assert.Equal(t, []string{"shared", "users", "orders", "app"}, names(tree.Order()))
	assert.Equal(t, "app", tree.Root().Name())

	node, ok := tree.Get(shared)
	require.True(t, ok)
	assert.Same(t, users, node.Parent, "parent is the first importer")
}

func TestBuildModuleTree_Cycle(t *testing.T) {
	a := NewModule("a")
	b := NewModule("b", Imports(a))
	root := a.Setup(Imports(b))

	_, err := BuildModuleTree(root)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCyclicModule)
	assert.Contains(t, err.Error(), "a -> b -> a")
}

func TestBuildModuleTree_SelfImport(t *testing.T) {
	a := NewModule("a")
	_, err := BuildModuleTree(a.Setup(Imports(a)))
	assert.ErrorIs(t, err, ErrCyclicModule)
}

func TestBuildModuleTree_NilRoot(t *testing.T) {
	_, err := BuildModuleTree(nil)
	assert.ErrorIs(t, err, ErrImproperConfiguration)
}

func TestBuildModuleTree_SetupVariantReplacesPlain(t *testing.T) {
	db := NewModule("db")
	configured := db.Setup(Providers(Value("dsn")))
	repo := NewModule("repo", Imports(db))
	root := NewModule("app", Imports(configured, repo))

	tree, err := BuildModuleTree(root)
	require.NoError(t, err)

	node, ok := tree.Get(db)
	require.True(t, ok)
	assert.Same(t, configured, node.Module)
	assert.Equal(t, 3, tree.Len())
}

func TestBuildModuleTree_ConflictingSetup(t *testing.T) {
	db := NewModule("db")
	root := NewModule("app", Imports(
		db.Setup(Providers(Value("one"))),
		NewModule("other", Imports(db.Setup(Providers(Value("two"))))),
	))

	_, err := BuildModuleTree(root)
	assert.ErrorIs(t, err, ErrImproperConfiguration)
}

func TestModuleTree_Queries(t *testing.T) {
	leaf := NewModule("leaf", TemplateGlobal("marker", true))
	mid := NewModule("mid", Imports(leaf))
	other := NewModule("other")
	root := NewModule("app", Imports(mid, other))

	tree, err := BuildModuleTree(root)
	require.NoError(t, err)

	assert.Equal(t, []string{"mid", "other"}, names(tree.Dependencies(root, nil)))
	assert.Equal(t, []string{"other"}, names(tree.Dependencies(root, func(n *TreeNode) bool {
		return n.Name() == "other"
	})))

	found := tree.Find(func(n *TreeNode) bool { return len(n.Module.meta.Imports) == 0 })
	assert.Equal(t, []string{"leaf", "other"}, names(found))

	node, ok := tree.Search(
		func(n *TreeNode) bool { return n.Name() == "mid" },
		func(n *TreeNode) bool { return n.Module.meta.TemplateGlobals["marker"] == true },
	)
	require.True(t, ok)
	assert.Equal(t, "leaf", node.Name())

	_, ok = tree.Search(
		func(n *TreeNode) bool { return n.Name() == "other" },
		func(n *TreeNode) bool { return n.Name() == "leaf" },
	)
	assert.False(t, ok)
}
