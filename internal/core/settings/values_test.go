package settings

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// drawGroups builds a random valid set of groups
func drawGroups(t *rapid.T) []Group {
	numGroups := rapid.IntRange(1, 4).Draw(t, "numGroups")
	groups := make([]Group, 0, numGroups)

	for gi := 0; gi < numGroups; gi++ {
		g := Group{ID: fmt.Sprintf("group_%d", gi), Title: fmt.Sprintf("Group %d", gi)}
		numSettings := rapid.IntRange(0, 5).Draw(t, fmt.Sprintf("numSettings_%d", gi))

		for si := 0; si < numSettings; si++ {
			id := fmt.Sprintf("setting_%d", si)
			switch rapid.IntRange(0, 4).Draw(t, fmt.Sprintf("kind_%d_%d", gi, si)) {
			case 0:
				g.Settings = append(g.Settings, Setting{ID: id, Kind: KindString, Default: rapid.String().Draw(t, "stringDefault")})
			case 1:
				g.Settings = append(g.Settings, Setting{ID: id, Kind: KindBoolean, Default: rapid.Bool().Draw(t, "boolDefault")})
			case 2:
				opts := []EnumOption{{Value: "a"}, {Value: "b"}, {Value: "c"}}
				g.Settings = append(g.Settings, Setting{ID: id, Kind: KindEnum, Options: opts, Default: rapid.SampledFrom([]string{"a", "b", "c"}).Draw(t, "enumDefault")})
			case 3:
				g.Settings = append(g.Settings, Setting{ID: id, Kind: KindSpinbox, Min: 0, Max: 100, Default: int64(rapid.IntRange(0, 100).Draw(t, "spinDefault"))})
			default:
				g.Settings = append(g.Settings, Setting{ID: id, Kind: KindButton, ActionID: "SomeAction"})
			}
		}
		groups = append(groups, g)
	}

	return groups
}

// drawStored builds arbitrary stored values, some valid, some mismatched, some unknown
func drawStored(t *rapid.T, groups []Group) Values {
	stored := Values{}
	for _, g := range groups {
		for _, s := range g.Settings {
			if !rapid.Bool().Draw(t, "present") {
				continue
			}
			value := rapid.OneOf(
				rapid.Just[interface{}]("text"),
				rapid.Just[interface{}]("b"),
				rapid.Just[interface{}](true),
				rapid.Just[interface{}](float64(42)),
				rapid.Just[interface{}](float64(1000)),
				rapid.Just[interface{}](nil),
			).Draw(t, "value")
			stored.Set(g.ID, s.ID, value)
		}
	}
	if rapid.Bool().Draw(t, "unknownKeys") {
		stored.Set("no_such_group", "x", "y")
		stored.Set(groups[0].ID, "no_such_setting", 1)
	}
	return stored
}

// TestMergeWithDefaults_PropertyBased tests that every stored setting gets the
// stored value when valid and the default otherwise
func TestMergeWithDefaults_PropertyBased(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		groups := drawGroups(t)
		stored := drawStored(t, groups)
		before := stored.Clone()

		effective := MergeWithDefaults(stored, groups)

		assert.Equal(t, before, stored, "merge should not modify its input")
		assert.NotContains(t, effective, "no_such_group")

		for _, g := range groups {
			entries, ok := effective[g.ID]
			require.True(t, ok, "every group should be present")

			for _, s := range g.Settings {
				got, present := entries[s.ID]
				if !s.Stored() {
					assert.False(t, present, "%s should never hold a value", s.Kind)
					continue
				}
				require.True(t, present, "every stored setting should have a value")

				raw, ok := stored.Get(g.ID, s.ID)
				if normalized, valid := s.Normalize(raw); ok && valid {
					assert.Equal(t, normalized, got)
				} else {
					assert.Equal(t, s.Default, got)
				}
			}
			assert.NotContains(t, entries, "no_such_setting")
		}
	})
}

// TestMergeWithDefaults_EmptyStoreEqualsDefaults tests the exhaustive empty case
func TestMergeWithDefaults_EmptyStoreEqualsDefaults(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		groups := drawGroups(t)

		effective := MergeWithDefaults(Values{}, groups)
		fromNil := MergeWithDefaults(nil, groups)

		for _, g := range groups {
			assert.Equal(t, g.Defaults(), effective[g.ID])
		}
		assert.Equal(t, effective, fromNil)
	})
}

// TestResetGroup_PropertyBased tests that a reset group falls back to defaults
// and every other group is unchanged
func TestResetGroup_PropertyBased(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		groups := drawGroups(t)
		stored := drawStored(t, groups)
		target := rapid.SampledFrom(groups).Draw(t, "target")

		before := MergeWithDefaults(stored, groups)
		snapshot := stored.Clone()

		after := MergeWithDefaults(ResetGroup(stored, target.ID), groups)

		assert.Equal(t, snapshot, stored, "reset should return a new value")
		assert.Equal(t, target.Defaults(), after[target.ID])
		for _, g := range groups {
			if g.ID == target.ID {
				continue
			}
			assert.Equal(t, before[g.ID], after[g.ID], "group %s should be unchanged", g.ID)
		}
	})
}

// TestSetting_PropertyBased_EnumRejectsNonMembers tests enum membership checks
func TestSetting_PropertyBased_EnumRejectsNonMembers(t *testing.T) {
	s := Setting{ID: "mode", Kind: KindEnum, Options: []EnumOption{{Value: "a"}, {Value: "b"}}}

	rapid.Check(t, func(t *rapid.T) {
		value := rapid.String().Draw(t, "value")

		_, err := s.Validate("general", value)
		if value == "a" || value == "b" {
			assert.NoError(t, err)
		} else {
			assert.ErrorIs(t, err, ErrInvalidValue)
		}
	})
}

// TestValues_Clone_IsDeep tests that clones do not share group maps
func TestValues_Clone_IsDeep(t *testing.T) {
	v := Values{}
	v.Set("general", "root", "/a")

	c := v.Clone()
	c.Set("general", "root", "/b")
	c.Set("other", "x", true)

	got, ok := v.Get("general", "root")
	require.True(t, ok)
	assert.Equal(t, "/a", got)
	_, ok = v.Get("other", "x")
	assert.False(t, ok)
}
