package neural

// IODescriptor describes a brain input or output for logs and snapshot headers.
type IODescriptor struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Min         float32 `json:"min"`
	Max         float32 `json:"max"`
	Group       string  `json:"group"`
}

// BrainInputDescriptors returns metadata for all brain inputs.
// Order matches the indices used in SensoryInputs.ToInputs().
func BrainInputDescriptors() []IODescriptor {
	return []IODescriptor{
		{ID: "energy", Description: "Energy / max energy", Min: 0, Max: 1, Group: "self"},
		{ID: "mass", Description: "Mass within the configured mass range", Min: 0, Max: 1, Group: "self"},
		{ID: "tile_neutral", Description: "Current tile is unowned", Min: 0, Max: 1, Group: "territory"},
		{ID: "tile_own", Description: "Current tile is owned by own team", Min: 0, Max: 1, Group: "territory"},
		{ID: "tile_enemy", Description: "Current tile is owned by the other team", Min: 0, Max: 1, Group: "territory"},
		{ID: "frontier", Description: "Share of neighbouring tiles not held by own team", Min: 0, Max: 1, Group: "territory"},
		{ID: "allies", Description: "Nearby teammates, saturating", Min: 0, Max: 1, Group: "neighbours"},
		{ID: "enemies", Description: "Nearby opponents, saturating", Min: 0, Max: 1, Group: "neighbours"},
	}
}

// BrainOutputDescriptors returns metadata for the outputs the action interpreter reads.
func BrainOutputDescriptors() []IODescriptor {
	return []IODescriptor{
		{ID: "move_x", Description: "Desired x velocity", Min: -1, Max: 1, Group: "movement"},
		{ID: "move_y", Description: "Desired y velocity", Min: -1, Max: 1, Group: "movement"},
		{ID: "claim", Description: "Claim the current tile when above threshold", Min: -1, Max: 1, Group: "action"},
	}
}

// InputByID returns the descriptor for a specific input by ID.
func InputByID(id string) (IODescriptor, bool) {
	for _, desc := range BrainInputDescriptors() {
		if desc.ID == id {
			return desc, true
		}
	}
	return IODescriptor{}, false
}

// OutputByID returns the descriptor for a specific output by ID.
func OutputByID(id string) (IODescriptor, bool) {
	for _, desc := range BrainOutputDescriptors() {
		if desc.ID == id {
			return desc, true
		}
	}
	return IODescriptor{}, false
}

