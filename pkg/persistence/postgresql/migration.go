package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Workflow definitions. Nodes and edges are stored as JSONB:
			-- the engine always loads the whole graph, never parts of it.
			CREATE TABLE workflows (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				status VARCHAR(50) NOT NULL CHECK (status IN ('draft', 'published', 'unpublished')),
				trigger_kind VARCHAR(50) NOT NULL CHECK (trigger_kind IN ('stage_entered', 'appointment_booked')),
				stage_id VARCHAR(255),
				nodes JSONB NOT NULL DEFAULT '[]',
				edges JSONB NOT NULL DEFAULT '[]',
				owner VARCHAR(255),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				published_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_workflows_status ON workflows(status);
			CREATE INDEX idx_workflows_trigger_kind ON workflows(trigger_kind);
			CREATE INDEX idx_workflows_stage_id ON workflows(stage_id);
		`,
		2: `
			-- Execution state. Never deleted by the engine; retained for audit.
			CREATE TABLE executions (
				id VARCHAR(255) PRIMARY KEY,
				workflow_id UUID NOT NULL REFERENCES workflows(id),
				subject_id VARCHAR(255) NOT NULL,
				current_node_id VARCHAR(255) NOT NULL,
				status VARCHAR(50) NOT NULL CHECK (status IN ('pending', 'completed', 'stopped')),
				resume_at TIMESTAMP WITH TIME ZONE,
				snapshot JSONB NOT NULL DEFAULT '{}',
				appointment_id VARCHAR(255),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_executions_workflow_id ON executions(workflow_id);
			CREATE INDEX idx_executions_subject_id ON executions(subject_id);
			-- Backs the due-work poller query.
			CREATE INDEX idx_executions_due ON executions(status, resume_at) WHERE resume_at IS NOT NULL;
		`,
	}
}
