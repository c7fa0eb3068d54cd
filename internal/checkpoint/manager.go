package checkpoint

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/labelwand/internal/grid"
	"github.com/banshee-data/labelwand/internal/timeutil"
)

// Manager snapshots one label grid into a Store under a session id.
// It satisfies regiongrow.Checkpointer.
type Manager struct {
	store   *Store
	labels  grid.Labels
	session string

	// Reason is stored with each snapshot taken by SaveState.
	Reason string
	// Clock stamps the snapshots.
	Clock timeutil.Clock

	last time.Time
}

// NewManager binds labels to store. An empty sessionID starts a new session.
func NewManager(store *Store, labels grid.Labels, sessionID string) *Manager {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	return &Manager{
		store:   store,
		labels:  labels,
		session: sessionID,
		Reason:  "wand",
		Clock:   timeutil.RealClock{},
	}
}

// SessionID is the session the manager writes to.
func (m *Manager) SessionID() string { return m.session }

// SaveState stores a snapshot of the current labels.
func (m *Manager) SaveState() error {
	labels, labeled := Snapshot(m.labels)
	cp := Checkpoint{
		ID:           uuid.NewString(),
		SessionID:    m.session,
		TakenAt:      m.tick(),
		Shape:        m.labels.Shape(),
		Reason:       m.Reason,
		LabeledCount: labeled,
		Labels:       labels,
	}
	if err := m.store.Insert(cp); err != nil {
		opsf("save state for session %s: %v", m.session, err)
		return err
	}
	diagf("saved %s session=%s labeled=%d", cp.ID, m.session, labeled)
	return nil
}

// tick returns a timestamp strictly after the previous one so snapshots
// taken within one clock tick still order correctly.
func (m *Manager) tick() time.Time {
	t := m.Clock.Now()
	if !t.After(m.last) {
		t = m.last.Add(time.Nanosecond)
	}
	m.last = t
	return t
}

// Undo restores the most recent snapshot into the label grid and removes
// it from the store. It returns ErrNoCheckpoint when the history is empty.
// The row is deleted before the grid is written, so a failed delete leaves
// both the grid and the history as they were.
func (m *Manager) Undo() (*Checkpoint, error) {
	cp, err := m.store.Latest(m.session)
	if err != nil {
		return nil, err
	}
	if err := checkSnapshot(m.labels, cp.Shape, cp.Labels); err != nil {
		opsf("undo %s: %v", cp.ID, err)
		return nil, fmt.Errorf("undo %s: %w", cp.ID, err)
	}
	if err := m.store.Delete(cp.ID); err != nil {
		opsf("undo %s: %v", cp.ID, err)
		return nil, err
	}
	if err := Restore(m.labels, cp.Shape, cp.Labels); err != nil {
		return nil, fmt.Errorf("undo %s: %w", cp.ID, err)
	}
	diagf("undid %s session=%s", cp.ID, m.session)
	return cp, nil
}

// History lists this session's checkpoints, newest first.
func (m *Manager) History(limit int) ([]Checkpoint, error) {
	return m.store.List(m.session, limit)
}

// Prune keeps the newest keep checkpoints of this session.
func (m *Manager) Prune(keep int) (int64, error) {
	return m.store.Prune(m.session, keep)
}
