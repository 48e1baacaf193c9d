package btree

import (
	"fmt"
	"sort"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func TestTree_InsertGetRemove(t *testing.T) {
	tree, err := NewTree(4)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		key := fmt.Sprintf("k%03d", i)
		require.NoError(t, tree.Insert(key, i))
	}
	require.True(t, tree.Validate())

	for i := 0; i < 50; i++ {
		key := fmt.Sprintf("k%03d", i)
		v, ok, err := tree.Get(key)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, i, v)
	}

	for i := 0; i < 50; i += 2 {
		key := fmt.Sprintf("k%03d", i)
		require.NoError(t, tree.Remove(key))
		require.True(t, tree.Validate(), "invariants must hold after removing %s", key)
	}

	for i := 0; i < 50; i++ {
		key := fmt.Sprintf("k%03d", i)
		_, ok, err := tree.Get(key)
		require.NoError(t, err)
		require.Equal(t, i%2 != 0, ok)
	}
}

func TestTree_UpsertDoesNotChangeStructure(t *testing.T) {
	tree, err := NewTree(4)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		require.NoError(t, tree.Insert(fmt.Sprintf("k%02d", i), i))
	}
	before := tree.DebugDump()

	require.NoError(t, tree.Insert("k05", 999))
	after := tree.DebugDump()
	require.Equal(t, before, after)

	v, ok, err := tree.Get("k05")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 999, v)
}

func TestTree_RemoveMissingKeyFails(t *testing.T) {
	tree, err := NewTree(4)
	require.NoError(t, err)
	err = tree.Remove("missing")
	require.Error(t, err)
}

func TestTree_NullKeyFails(t *testing.T) {
	tree, err := NewTree(4)
	require.NoError(t, err)

	require.Error(t, tree.Insert("", 1))
	_, _, err = tree.Get("")
	require.Error(t, err)
	require.Error(t, tree.Remove(""))
}

func TestTree_OrderBelowMinimumFails(t *testing.T) {
	_, err := NewTree(2)
	require.Error(t, err)
}

func TestTree_RangeAndFullScan(t *testing.T) {
	tree, err := NewTree(4)
	require.NoError(t, err)

	for i := 0; i < 30; i++ {
		require.NoError(t, tree.Insert(fmt.Sprintf("k%02d", i), i))
	}

	pairs, err := tree.Range("k10", "k15")
	require.NoError(t, err)
	require.Len(t, pairs, 6)
	for i, p := range pairs {
		require.Equal(t, fmt.Sprintf("k%02d", 10+i), p.Key)
	}

	all, err := tree.FullScan()
	require.NoError(t, err)
	require.Len(t, all, 30)
	for i := 1; i < len(all); i++ {
		require.Less(t, all[i-1].Key, all[i].Key)
	}
}

func TestTree_LeafChainContainsExactlyLiveKeys(t *testing.T) {
	tree, err := NewTree(3)
	require.NoError(t, err)

	keys := []string{"m", "d", "z", "a", "q", "b", "y", "e", "c", "x"}
	for i, k := range keys {
		require.NoError(t, tree.Insert(k, i))
	}
	for _, k := range []string{"d", "y", "a"} {
		require.NoError(t, tree.Remove(k))
	}
	require.True(t, tree.Validate())

	all, err := tree.FullScan()
	require.NoError(t, err)

	want := []string{"b", "c", "e", "m", "q", "x", "z"}
	got := make([]string, len(all))
	for i, p := range all {
		got[i] = p.Key
	}
	require.Equal(t, want, got)
}

// TestTree_PropertyInvariantsHoldUnderRandomOps drives the tree with random
// insert/remove sequences across a range of orders and checks that
// Validate() holds, the live key set matches a reference map, and the leaf
// chain yields ascending order — the "testable properties" from spec §8.
func TestTree_PropertyInvariantsHoldUnderRandomOps(t *testing.T) {
	props := gopter.NewProperties(gopter.DefaultTestParameters())

	orderGen := gen.IntRange(3, 8)
	opsGen := gen.SliceOfN(60, gen.IntRange(0, 999))

	props.Property("validate holds and live set matches reference", prop.ForAll(
		func(order int, ops []int) bool {
			tree, err := NewTree(order)
			if err != nil {
				return false
			}
			live := make(map[string]int)

			for i, v := range ops {
				key := fmt.Sprintf("key-%04d", v)
				if i%3 == 2 {
					if _, ok := live[key]; ok {
						if err := tree.Remove(key); err != nil {
							return false
						}
						delete(live, key)
					}
					continue
				}
				if err := tree.Insert(key, v); err != nil {
					return false
				}
				live[key] = v
			}

			if !tree.Validate() {
				return false
			}

			all, err := tree.FullScan()
			if err != nil || len(all) != len(live) {
				return false
			}
			wantKeys := make([]string, 0, len(live))
			for k := range live {
				wantKeys = append(wantKeys, k)
			}
			sort.Strings(wantKeys)
			for i, p := range all {
				if p.Key != wantKeys[i] || p.Value.(int) != live[p.Key] {
					return false
				}
			}
			return true
		},
		orderGen, opsGen,
	))

	props.TestingRun(t)
}
