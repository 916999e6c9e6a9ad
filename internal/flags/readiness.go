package flags

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
)

// moduleChecklists enumerates the onboarding items per module. The item set
// is fixed; only the per-tenant completion state varies.
var moduleChecklists = map[string][]string{
	"projects": {"create_first_project", "invite_team", "configure_statuses"},
	"tasks":    {"create_first_task", "assign_task", "set_due_dates"},
	"qc":       {"create_qc_plan", "approve_qc_plan", "run_first_inspection"},
	"rfis":     {"create_first_rfi", "configure_sla_window"},
	"docs":     {"upload_first_document", "configure_storage"},
}

// ModuleReadiness summarizes a tenant's checklist completion for one module.
type ModuleReadiness struct {
	Module     string          `json:"module"`
	Items      []ReadinessItem `json:"items"`
	Completion float64         `json:"completion"` // 0..1, rounded to 2 places
}

type ReadinessItem struct {
	Key       string `json:"key"`
	Completed bool   `json:"completed"`
}

// KnownModule reports whether the module has a defined checklist.
func KnownModule(module string) bool {
	_, ok := moduleChecklists[module]
	return ok
}

// KnownItem reports whether the item belongs to the module's checklist.
func KnownItem(module, item string) bool {
	for _, k := range moduleChecklists[module] {
		if k == item {
			return true
		}
	}
	return false
}

// Readiness computes checklist completion for every module, or for a single
// module when the argument is non-empty. Items never touched by the tenant
// count as incomplete.
func (s *Service) Readiness(ctx context.Context, tenantID uuid.UUID, module string) ([]ModuleReadiness, error) {
	stored, err := s.store.ListReadinessItems(ctx, tenantID, module)
	if err != nil {
		return nil, fmt.Errorf("module readiness: %w", err)
	}

	completed := map[string]bool{}
	for _, it := range stored {
		if it.Completed {
			completed[it.Module+"/"+it.ItemKey] = true
		}
	}

	var out []ModuleReadiness
	for mod, items := range moduleChecklists {
		if module != "" && mod != module {
			continue
		}
		r := ModuleReadiness{Module: mod}
		done := 0
		for _, key := range items {
			isDone := completed[mod+"/"+key]
			if isDone {
				done++
			}
			r.Items = append(r.Items, ReadinessItem{Key: key, Completed: isDone})
		}
		r.Completion = math.Round(float64(done)/float64(len(items))*100) / 100
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Module < out[j].Module })
	return out, nil
}
