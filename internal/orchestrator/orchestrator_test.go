package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/sathyaincampus/software-engineering-agents/internal/errors"
	"github.com/sathyaincampus/software-engineering-agents/internal/storage"
)

func testOrchestrator(t *testing.T) (*Orchestrator, *storage.Store) {
	t.Helper()
	store, err := storage.NewStore(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	return New(store, NewMemorySessionService(), zerolog.Nop()), store
}

func TestCreateSession(t *testing.T) {
	o, _ := testOrchestrator(t)

	session, err := o.CreateSession(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID())
	assert.Equal(t, StatusInitialized, session.Status())
	assert.Equal(t, PhaseStrategy, session.Phase())

	got, err := o.GetSession(context.Background(), session.ID())
	require.NoError(t, err)
	assert.Same(t, session, got)
}

func TestGetSession_UnknownIsNil(t *testing.T) {
	o, _ := testOrchestrator(t)
	session, err := o.GetSession(context.Background(), "no-such-id")
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestRestoreSession_Fidelity(t *testing.T) {
	store, err := storage.NewStore(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)

	first := New(store, NewMemorySessionService(), zerolog.Nop())
	session, err := first.CreateSession(context.Background())
	require.NoError(t, err)
	sid := session.ID()

	require.NoError(t, store.SetProjectName(sid, "Recipe App"))
	_, err = store.SaveStep(sid, "ideas", map[string]any{"v": 1})
	require.NoError(t, err)
	_, err = store.SaveStep(sid, "prd", "# PRD")
	require.NoError(t, err)

	// Brand-new orchestrator: no in-memory state survives.
	second := New(store, NewMemorySessionService(), zerolog.Nop())
	restored, err := second.GetSession(context.Background(), sid)
	require.NoError(t, err)
	require.NotNil(t, restored)

	view := restored.View()
	assert.Equal(t, StatusRestored, view.Status)
	assert.Equal(t, "Recipe App", view.ProjectName)
	assert.Contains(t, view.Artifacts, "ideas")
	assert.Contains(t, view.Artifacts, "prd")
	require.NotEmpty(t, view.Logs)
	assert.Contains(t, view.Logs[len(view.Logs)-1], "restored")
}

func TestRestoreSession_ExistingContextTolerated(t *testing.T) {
	store, err := storage.NewStore(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	contexts := NewMemorySessionService()

	first := New(store, contexts, zerolog.Nop())
	session, err := first.CreateSession(context.Background())
	require.NoError(t, err)
	_, err = store.SaveStep(session.ID(), "ideas", map[string]any{"v": 1})
	require.NoError(t, err)

	// Same session service: CreateSession will report "already exists".
	second := New(store, contexts, zerolog.Nop())
	restored, err := second.RestoreSession(context.Background(), session.ID())
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, StatusRestored, restored.Status())
}

// wrappingSessionService reports duplicates as a wrapped sentinel, the way a
// remote-backed implementation would.
type wrappingSessionService struct {
	inner *MemorySessionService
}

func (w *wrappingSessionService) CreateSession(ctx context.Context, appName, userID, sessionID string) error {
	if err := w.inner.CreateSession(ctx, appName, userID, sessionID); err != nil {
		return fmt.Errorf("upstream session service: %w", err)
	}
	return nil
}

func TestRestoreSession_WrappedExistsTolerated(t *testing.T) {
	store, err := storage.NewStore(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	contexts := &wrappingSessionService{inner: NewMemorySessionService()}

	first := New(store, contexts, zerolog.Nop())
	session, err := first.CreateSession(context.Background())
	require.NoError(t, err)
	_, err = store.SaveStep(session.ID(), "ideas", map[string]any{"v": 1})
	require.NoError(t, err)

	second := New(store, contexts, zerolog.Nop())
	restored, err := second.RestoreSession(context.Background(), session.ID())
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, StatusRestored, restored.Status())
}

func TestDispatch(t *testing.T) {
	o, _ := testOrchestrator(t)
	session, err := o.CreateSession(context.Background())
	require.NoError(t, err)

	o.RegisterHandler("idea_generator", StageHandlerFunc(func(ctx context.Context, sessionID, prompt string) (string, error) {
		assert.Equal(t, session.ID(), sessionID)
		return `{"ideas": []}`, nil
	}))

	out, err := o.Dispatch(context.Background(), session.ID(), "idea_generator", "fitness apps")
	require.NoError(t, err)
	assert.Equal(t, `{"ideas": []}`, out)

	logs := session.View().Logs
	require.NotEmpty(t, logs)
	assert.Contains(t, logs[len(logs)-1], "idea_generator")
}

func TestDispatch_UnknownSession(t *testing.T) {
	o, _ := testOrchestrator(t)
	o.RegisterHandler("idea_generator", StageHandlerFunc(func(ctx context.Context, sessionID, prompt string) (string, error) {
		return "", nil
	}))

	_, err := o.Dispatch(context.Background(), "missing", "idea_generator", "x")
	assert.ErrorIs(t, err, perrors.ErrNotFound)
}

func TestDispatch_UnknownHandler(t *testing.T) {
	o, _ := testOrchestrator(t)
	session, err := o.CreateSession(context.Background())
	require.NoError(t, err)

	_, err = o.Dispatch(context.Background(), session.ID(), "nope", "x")
	assert.ErrorIs(t, err, perrors.ErrNotFound)
}

func TestDispatch_HandlerErrorPropagates(t *testing.T) {
	o, _ := testOrchestrator(t)
	session, err := o.CreateSession(context.Background())
	require.NoError(t, err)

	boom := errors.New("429 RESOURCE_EXHAUSTED: quota exceeded")
	o.RegisterHandler("idea_generator", StageHandlerFunc(func(ctx context.Context, sessionID, prompt string) (string, error) {
		return "", boom
	}))

	_, err = o.Dispatch(context.Background(), session.ID(), "idea_generator", "x")
	assert.ErrorIs(t, err, boom)
}
