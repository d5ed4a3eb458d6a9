// Package workflow implements the execution engine: edge resolution, node
// execution, the trampoline runner, the trigger launcher and the due-work
// poller.
package workflow

import (
	"log/slog"

	"github.com/journeyhq/journey/pkg/models"
)

// Resolver walks the edge list of one workflow graph. Edges pointing at
// nodes that no longer exist are skipped rather than followed, so a
// partially-edited graph stays runnable.
type Resolver struct {
	workflow *models.Workflow
	logger   *slog.Logger
}

// NewResolver creates a resolver over the given workflow graph.
func NewResolver(workflow *models.Workflow, logger *slog.Logger) *Resolver {
	return &Resolver{
		workflow: workflow,
		logger:   logger.With("module", "edge_resolver", "workflow_id", workflow.ID),
	}
}

// Next returns the id of the node after nodeID: the first edge in authored
// order whose target exists. Empty string means end of path.
func (r *Resolver) Next(nodeID string) string {
	for _, edge := range r.workflow.Edges {
		if edge.SourceID != nodeID {
			continue
		}

		if r.workflow.NodeByID(edge.TargetID) == nil {
			r.logger.Warn("Skipping edge with missing target node",
				"edge_id", edge.ID,
				"source_id", edge.SourceID,
				"target_id", edge.TargetID)

			continue
		}

		return edge.TargetID
	}

	return ""
}

// NextForBranch returns the target of the first existing edge out of
// nodeID labeled with the evaluated result. Empty string when no labeled
// edge matches.
func (r *Resolver) NextForBranch(nodeID string, result bool) string {
	label := models.BranchLabel(result)

	for _, edge := range r.workflow.Edges {
		if edge.SourceID != nodeID || edge.Label != label {
			continue
		}

		if r.workflow.NodeByID(edge.TargetID) == nil {
			r.logger.Warn("Skipping branch edge with missing target node",
				"edge_id", edge.ID,
				"source_id", edge.SourceID,
				"target_id", edge.TargetID,
				"label", label)

			continue
		}

		return edge.TargetID
	}

	return ""
}
