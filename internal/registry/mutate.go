package registry

// CheckCollision implements §4.9's check-collision: none if no
// mapping has this central path, same-machine if the one that does
// belongs to machineID, collision otherwise.
func (r *Registry) CheckCollision(centralPath, machineID string) CollisionResult {
	centralPath = NormalizeCentralPath(centralPath)
	for _, m := range r.Mappings {
		if m.CentralPath != centralPath {
			continue
		}
		if m.MachineID == machineID {
			return CollisionSameMachine
		}
		return CollisionConflict
	}
	return CollisionNone
}

// AddMapping replaces any existing (centralPath, machineID) mapping
// and preserves all others, per §4.9.
func (r *Registry) AddMapping(m Mapping) {
	m.CentralPath = NormalizeCentralPath(m.CentralPath)
	m.LocalPath = NormalizeLocalPathForStorage(m.LocalPath)

	for i, existing := range r.Mappings {
		if existing.CentralPath == m.CentralPath && existing.MachineID == m.MachineID {
			r.Mappings[i] = m
			return
		}
	}
	r.Mappings = append(r.Mappings, m)
}

// RemoveMapping removes only the (centralPath, machineID) pair given.
func (r *Registry) RemoveMapping(centralPath, machineID string) {
	centralPath = NormalizeCentralPath(centralPath)
	out := r.Mappings[:0]
	for _, m := range r.Mappings {
		if m.CentralPath == centralPath && m.MachineID == machineID {
			continue
		}
		out = append(out, m)
	}
	r.Mappings = out
}

// MappingsForMachine returns every mapping belonging to machineID.
func (r *Registry) MappingsForMachine(machineID string) []Mapping {
	var out []Mapping
	for _, m := range r.Mappings {
		if m.MachineID == machineID {
			out = append(out, m)
		}
	}
	return out
}
