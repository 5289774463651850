package docio

import (
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/kilupskalvis/cfgmerge/internal/models"
)

// MergePatch returns the RFC 7386 merge patch that turns from into to.
// Absent documents are treated as empty objects.
func MergePatch(from, to models.Document) ([]byte, error) {
	a, err := marshalObject(from)
	if err != nil {
		return nil, err
	}
	b, err := marshalObject(to)
	if err != nil {
		return nil, err
	}

	patch, err := jsonpatch.CreateMergePatch(a, b)
	if err != nil {
		return nil, fmt.Errorf("create merge patch: %w", err)
	}
	return patch, nil
}

// ApplyMergePatch applies an RFC 7386 merge patch to doc and returns the result
func ApplyMergePatch(doc models.Document, patch []byte) (models.Document, error) {
	original, err := marshalObject(doc)
	if err != nil {
		return nil, err
	}
	patched, err := jsonpatch.MergePatch(original, patch)
	if err != nil {
		return nil, fmt.Errorf("apply merge patch: %w", err)
	}
	return Parse(patched, FormatJSON)
}

func marshalObject(doc models.Document) ([]byte, error) {
	if doc == nil {
		doc = models.Document{}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return data, nil
}
