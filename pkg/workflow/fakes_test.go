package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/journeyhq/journey/pkg/persistence/file"
	"github.com/journeyhq/journey/pkg/protocol"
)

var errCollaboratorDown = errors.New("collaborator unavailable")

type sentMessage struct {
	ChannelID string
	Text      string
	URL       string
	Kind      string
}

type fakeMessenger struct {
	mu       sync.Mutex
	Texts    []sentMessage
	Media    []sentMessage
	FailText bool
}

func (m *fakeMessenger) SendText(_ context.Context, channelID, text string, _ protocol.DeliveryHints) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailText {
		return errCollaboratorDown
	}

	m.Texts = append(m.Texts, sentMessage{ChannelID: channelID, Text: text})

	return nil
}

func (m *fakeMessenger) SendAttachment(_ context.Context, channelID, url, kind string, _ protocol.DeliveryHints) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Media = append(m.Media, sentMessage{ChannelID: channelID, URL: url, Kind: kind})

	return nil
}

type fakeGenerator struct {
	GeneratedText string
	FailGenerate  bool
	Predicate     bool
	FailPredicate bool
	Disabled      []string
	FailDisable   bool
}

func (g *fakeGenerator) GenerateText(_ context.Context, _, _ string) (string, error) {
	if g.FailGenerate {
		return "", errCollaboratorDown
	}

	return g.GeneratedText, nil
}

func (g *fakeGenerator) EvaluatePredicate(_ context.Context, _, _ string) (bool, error) {
	if g.FailPredicate {
		return false, errCollaboratorDown
	}

	return g.Predicate, nil
}

func (g *fakeGenerator) DisableAutomation(_ context.Context, subjectID, _ string) error {
	if g.FailDisable {
		return errCollaboratorDown
	}

	g.Disabled = append(g.Disabled, subjectID)

	return nil
}

type fakeRecency struct {
	Replied    bool
	FailLookup bool
	LastWindow time.Duration
}

func (r *fakeRecency) HasRecentReply(_ context.Context, _ string, window time.Duration) (bool, error) {
	r.LastWindow = window

	if r.FailLookup {
		return false, errCollaboratorDown
	}

	return r.Replied, nil
}

func (r *fakeRecency) Touch(_ context.Context, _ string, _ time.Time) error {
	return nil
}

type testHarness struct {
	persistence *file.Persistence
	messenger   *fakeMessenger
	generator   *fakeGenerator
	recency     *fakeRecency
	executor    *NodeExecutor
	runner      *Runner
	launcher    *Launcher
}

// newTestHarness wires the engine over file persistence and in-memory
// collaborator fakes.
func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	logger := slog.Default()

	messenger := &fakeMessenger{}
	generator := &fakeGenerator{GeneratedText: "generated text"}
	recency := &fakeRecency{}

	collaborators := protocol.Collaborators{
		Messenger:  messenger,
		Generator:  generator,
		Automation: generator,
		Recency:    recency,
	}

	p := file.NewPersistence(t.TempDir())
	executor := NewNodeExecutor(collaborators, logger)
	runner := NewRunner(p, executor, nil, nil, logger)
	launcher := NewLauncher(p, runner, nil, logger)

	return &testHarness{
		persistence: p,
		messenger:   messenger,
		generator:   generator,
		recency:     recency,
		executor:    executor,
		runner:      runner,
		launcher:    launcher,
	}
}

// freezeClock pins the executor's and runner's notion of now.
func (h *testHarness) freezeClock(at time.Time) {
	h.executor.now = func() time.Time { return at }
	h.runner.now = func() time.Time { return at }
}
