package surface

import (
	"encoding/json"
	"fmt"

	"github.com/jonathan/form-autofill/internal/types"
)

// fieldRef addresses one input field relative to its question container.
// Handles are JSON-encoded so they stay opaque to callers.
type fieldRef struct {
	Container int             `json:"c"`
	Kind      types.FieldType `json:"k"`
	Index     int             `json:"i"`
}

func encodeFieldRef(r fieldRef) types.FieldHandle {
	data, _ := json.Marshal(r)
	return types.FieldHandle(data)
}

func decodeFieldRef(h types.FieldHandle) (fieldRef, error) {
	var r fieldRef
	if err := json.Unmarshal([]byte(h), &r); err != nil {
		return fieldRef{}, fmt.Errorf("malformed field handle %q: %w", h, err)
	}
	return r, nil
}

func encodeContainerHandle(index int) ContainerHandle {
	return ContainerHandle(fmt.Sprintf("container:%d", index))
}

func decodeContainerHandle(c ContainerHandle) (int, error) {
	var index int
	if _, err := fmt.Sscanf(string(c), "container:%d", &index); err != nil {
		return 0, fmt.Errorf("malformed container handle %q: %w", c, err)
	}
	return index, nil
}
