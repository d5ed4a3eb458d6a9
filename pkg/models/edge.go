package models

import "fmt"

// Branch edge labels. Branch nodes route on these literal strings; all
// other node kinds use unlabeled edges.
const (
	BranchLabelTrue  = "true"
	BranchLabelFalse = "false"
)

// Edge is a directed connection between two nodes, optionally guarded by
// a branch label.
type Edge struct {
	ID       string `json:"id"`
	SourceID string `json:"source_id" validate:"required"`
	TargetID string `json:"target_id" validate:"required"`
	Label    string `json:"label,omitempty"`
}

// Validate checks edge shape. Target existence is deliberately not checked:
// edges pointing at removed nodes are skipped at resolution time.
func (e *Edge) Validate() error {
	if err := validate.Struct(e); err != nil {
		return fmt.Errorf("edge %s failed validation: %w", e.ID, err)
	}

	if e.Label != "" && e.Label != BranchLabelTrue && e.Label != BranchLabelFalse {
		return fmt.Errorf("edge %s: label must be %q or %q, got %q", e.ID, BranchLabelTrue, BranchLabelFalse, e.Label)
	}

	return nil
}

// BranchLabel converts an evaluated branch result to its edge label.
func BranchLabel(result bool) string {
	if result {
		return BranchLabelTrue
	}

	return BranchLabelFalse
}
