package settings

// Values maps group identifier to setting identifier to value. It is the
// shape of the persisted settings file.
type Values map[string]map[string]interface{}

// Clone returns a deep copy. Leaf values are primitives and are shared.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for group, entries := range v {
		copied := make(map[string]interface{}, len(entries))
		for id, value := range entries {
			copied[id] = value
		}
		out[group] = copied
	}
	return out
}

// Get returns the value stored for a setting
func (v Values) Get(groupID, settingID string) (interface{}, bool) {
	entries, ok := v[groupID]
	if !ok {
		return nil, false
	}
	value, ok := entries[settingID]
	return value, ok
}

// Set stores a value, creating the group entry if needed
func (v Values) Set(groupID, settingID string, value interface{}) {
	entries, ok := v[groupID]
	if !ok {
		entries = make(map[string]interface{})
		v[groupID] = entries
	}
	entries[settingID] = value
}

// MergeWithDefaults computes the effective value of every stored setting in
// groups: the stored value when present and consistent with the setting's
// kind, the default otherwise. Keys unknown to groups are dropped. The input
// is not modified.
func MergeWithDefaults(stored Values, groups []Group) Values {
	effective := make(Values, len(groups))
	for _, g := range groups {
		entries := make(map[string]interface{}, len(g.Settings))
		for _, s := range g.Settings {
			if !s.Stored() {
				continue
			}
			entries[s.ID] = s.Default
			if value, ok := stored.Get(g.ID, s.ID); ok {
				if normalized, ok := s.Normalize(value); ok {
					entries[s.ID] = normalized
				}
			}
		}
		effective[g.ID] = entries
	}
	return effective
}

// ResetGroup returns a copy of stored without any entry for groupID. Other
// groups are left as they are.
func ResetGroup(stored Values, groupID string) Values {
	out := stored.Clone()
	delete(out, groupID)
	return out
}
