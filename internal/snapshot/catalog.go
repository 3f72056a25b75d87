package snapshot

import (
	"fmt"

	"github.com/doublemover/activationgate/internal/jsonv"
	"github.com/doublemover/activationgate/internal/model"
)

var catalogKeyOrder = []string{
	"generated_at_utc",
	"source",
	"generated_on",
	"task_count",
	"count",
	"tasks",
}

// Catalog is the structurally validated shell of a remaining-task catalog.
// Rows are checked individually by the catalog package.
type Catalog struct {
	Rows []*jsonv.Value
	// DeclaredCount is task_count (or legacy count), -1 when neither is set.
	DeclaredCount int
}

// ParseCatalog validates the catalog root and returns its task rows.
func ParseCatalog(payload *jsonv.Value, display string) (*Catalog, error) {
	c, err := parseCatalog(payload, InSuffix(display))
	if err != nil {
		return nil, model.AsKind(err, model.KindSchema)
	}
	return c, nil
}

func parseCatalog(payload *jsonv.Value, suffix string) (*Catalog, error) {
	c := &Catalog{DeclaredCount: -1}
	var rows *jsonv.Value

	switch {
	case payload.IsObject():
		if err := jsonv.CheckKeyOrder(payload, catalogKeyOrder, "catalog snapshot object"+suffix); err != nil {
			return nil, err
		}
		if !payload.Has("tasks") {
			return nil, fmt.Errorf("catalog JSON root object must include a 'tasks' array%s", suffix)
		}
		if err := checkProvenance(payload, "catalog", suffix); err != nil {
			return nil, err
		}

		if v, ok := payload.Get("generated_on"); ok {
			if _, err := jsonv.CanonicalString(v, "catalog snapshot field 'generated_on'"); err != nil {
				return nil, fmt.Errorf("%w%s", err, suffix)
			}
		}
		if v, ok := payload.Get("task_count"); ok {
			n, err := jsonv.NonNegativeInt(v, "catalog snapshot field 'task_count'")
			if err != nil {
				return nil, err
			}
			c.DeclaredCount = n
		}
		if v, ok := payload.Get("count"); ok {
			legacy, err := jsonv.NonNegativeInt(v, "catalog snapshot field 'count'")
			if err != nil {
				return nil, err
			}
			if c.DeclaredCount < 0 {
				c.DeclaredCount = legacy
			} else if c.DeclaredCount != legacy {
				return nil, fmt.Errorf("catalog snapshot fields 'task_count' and 'count' must match%s", suffix)
			}
		}
		rows = payload.Field("tasks")
	case payload.IsArray():
		rows = payload
	default:
		return nil, fmt.Errorf("catalog JSON root must be either an object or an array%s", suffix)
	}

	if !rows.IsArray() {
		return nil, fmt.Errorf("catalog tasks must be an array%s", suffix)
	}
	c.Rows = rows.Items()
	return c, nil
}

// CheckDeclaredCount compares the declared task count with the row count.
func (c *Catalog) CheckDeclaredCount(display string) error {
	if c.DeclaredCount >= 0 && c.DeclaredCount != len(c.Rows) {
		return model.SchemaErrorf("catalog snapshot count mismatch%s: declared=%d discovered=%d",
			InSuffix(display), c.DeclaredCount, len(c.Rows))
	}
	return nil
}
