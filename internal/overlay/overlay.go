// Package overlay resolves the T4 new-scope-publish override from the CLI
// flag, an overlay file, or the default.
package overlay

import (
	"github.com/doublemover/activationgate/internal/jsonv"
	"github.com/doublemover/activationgate/internal/model"
)

// Label names the overlay file in load diagnostics.
const Label = "T4 governance overlay"

var objectKeyOrder = []string{"t4_new_scope_publish", "T4_NEW_SCOPE_PUBLISH"}

// Resolve applies the precedence cli flag > overlay file > default. path and
// display are empty when no overlay file was given.
func Resolve(flag bool, path, display string) (model.OverlayState, error) {
	if flag {
		return model.OverlayState{NewScopePublish: true, Source: model.OverlaySourceCLI}, nil
	}
	if path == "" {
		return model.OverlayState{Source: model.OverlaySourceDefault}, nil
	}

	payload, err := jsonv.Load(path, Label, display)
	if err != nil {
		return model.OverlayState{}, model.AsKind(err, model.KindInput)
	}
	value, err := Parse(payload)
	if err != nil {
		return model.OverlayState{}, err
	}
	return model.OverlayState{NewScopePublish: value, Source: model.OverlaySourceFile, Path: path}, nil
}

// Parse reads the flag from an overlay document: a bare boolean, or an
// object carrying it under either accepted spelling.
func Parse(payload *jsonv.Value) (bool, error) {
	if b, ok := payload.Bool(); ok {
		return b, nil
	}
	if !payload.IsObject() {
		return false, model.SchemaErrorf("T4 governance overlay JSON must be either a boolean or an object " +
			"containing a boolean 't4_new_scope_publish' field")
	}
	if err := jsonv.CheckKeyOrder(payload, objectKeyOrder, "T4 governance overlay JSON object"); err != nil {
		return false, model.AsKind(err, model.KindSchema)
	}

	lower, hasLower := payload.Get("t4_new_scope_publish")
	upper, hasUpper := payload.Get("T4_NEW_SCOPE_PUBLISH")
	if !hasLower && !hasUpper {
		return false, model.SchemaErrorf("T4 governance overlay JSON object must include " +
			"'t4_new_scope_publish' (or 'T4_NEW_SCOPE_PUBLISH')")
	}

	raw := lower
	if !hasLower {
		raw = upper
	}
	value, ok := raw.Bool()
	if !ok {
		return false, model.SchemaErrorf("T4 governance overlay field 't4_new_scope_publish' must be a boolean")
	}
	if hasLower && hasUpper {
		legacy, ok := upper.Bool()
		if !ok {
			return false, model.SchemaErrorf("T4 governance overlay field 'T4_NEW_SCOPE_PUBLISH' must be a boolean")
		}
		if legacy != value {
			return false, model.SchemaErrorf("T4 governance overlay fields 't4_new_scope_publish' and " +
				"'T4_NEW_SCOPE_PUBLISH' must match when both are provided")
		}
	}
	return value, nil
}
