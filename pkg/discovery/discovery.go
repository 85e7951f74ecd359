package discovery

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/shamank/discovery-sdk-go/pkg/model"
	"go.uber.org/zap"
)

// ErrInvalidDocument is returned by Validate when a document lacks what a
// client needs to address its methods.
var ErrInvalidDocument = errors.New("invalid api document")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Parse decodes a discovery REST description and flattens its nested
// resources. Only malformed JSON is an error; missing fields are left for
// Validate.
func Parse(data []byte) (*model.APIMetadata, error) {
	var meta model.APIMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode api document: %w", err)
	}
	Flatten(&meta)
	return &meta, nil
}

// Flatten copies every method declared under Resources into Methods, keyed
// by method id. Methods already present keep their entry. Resources are
// visited in lexical order, so the result does not depend on map iteration.
func Flatten(meta *model.APIMetadata) {
	if meta == nil || len(meta.Resources) == 0 {
		return
	}
	if meta.Methods == nil {
		meta.Methods = make(map[string]*model.MethodMetadata)
	}
	flattenResources(meta, meta.Name, meta.Resources)
}

func flattenResources(meta *model.APIMetadata, prefix string, resources map[string]*model.ResourceMetadata) {
	for _, name := range sortedKeys(resources) {
		res := resources[name]
		if res == nil {
			continue
		}
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}
		for _, mname := range sortedKeys(res.Methods) {
			m := res.Methods[mname]
			if m == nil {
				continue
			}
			key := m.ID
			if key == "" {
				key = path + "." + mname
			}
			if _, exists := meta.Methods[key]; exists {
				zap.L().Debug("method already declared, keeping first",
					zap.String("api", meta.Name), zap.String("method", key))
				continue
			}
			meta.Methods[key] = m
		}
		flattenResources(meta, path, res.Resources)
	}
}

// Validate checks that meta names its API and version and that every method
// carries an id.
func Validate(meta *model.APIMetadata) error {
	if meta == nil {
		return fmt.Errorf("%w: nil document", ErrInvalidDocument)
	}
	if err := validate.Struct(meta); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", ErrInvalidDocument, verrs)
		}
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
