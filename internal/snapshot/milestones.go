package snapshot

import (
	"fmt"

	"github.com/doublemover/activationgate/internal/jsonv"
)

var milestoneRowKeyOrder = []string{
	"number",
	"title",
	"state",
	"description",
	"open_issues",
	"closed_issues",
	"url",
	"html_url",
	"created_at",
	"updated_at",
	"due_on",
	"closed_at",
}

var (
	milestoneOptionalText   = []string{"state", "description"}
	milestoneOptionalCounts = []string{"open_issues", "closed_issues"}
	milestoneOptionalLinks  = []string{"url", "html_url", "created_at", "updated_at", "due_on", "closed_at"}
)

// validateMilestoneRows checks every row of one milestone array. Numbers must
// be unique and ascending in row order.
func validateMilestoneRows(rows []*jsonv.Value, context, suffix string) error {
	seen := make(map[int]bool, len(rows))
	previous := 0
	sorted := true

	for i, row := range rows {
		prefix := fmt.Sprintf("open milestones snapshot %s[%d]", context, i)
		if !row.IsObject() {
			return fmt.Errorf("%s must be an object%s", prefix, suffix)
		}
		if err := jsonv.CheckKeyOrder(row, milestoneRowKeyOrder, prefix+" object"+suffix); err != nil {
			return err
		}

		number, err := jsonv.PositiveInt(row.Field("number"), prefix+".number")
		if err != nil {
			return err
		}
		if _, err := jsonv.CanonicalString(row.Field("title"), prefix+".title"); err != nil {
			return err
		}
		for _, key := range milestoneOptionalText {
			if err := jsonv.OptionalCanonicalString(row.Field(key), prefix+"."+key); err != nil {
				return err
			}
		}
		for _, key := range milestoneOptionalCounts {
			if err := jsonv.OptionalNonNegativeInt(row.Field(key), prefix+"."+key); err != nil {
				return err
			}
		}
		for _, key := range milestoneOptionalLinks {
			if err := jsonv.OptionalCanonicalString(row.Field(key), prefix+"."+key); err != nil {
				return err
			}
		}

		if seen[number] {
			return fmt.Errorf("open milestones snapshot rows contain duplicate milestone number %d%s", number, suffix)
		}
		seen[number] = true
		if i > 0 && number < previous {
			sorted = false
		}
		previous = number
	}

	if !sorted {
		return fmt.Errorf("open milestones snapshot rows must be sorted by 'number'%s", suffix)
	}
	return nil
}
