package task

import "sync"

// Category names one configured news topic driving a task.
type Category struct {
	ID   string
	Name string
}

// Board is the live task collection for one batch. The orchestrator is the
// only writer; UI handlers read snapshots concurrently, hence the RWMutex.
// A new batch replaces the board wholesale, old tasks are discarded.
type Board struct {
	mu        sync.RWMutex
	order     []string
	tasks     map[string]*Task
	completed int
}

// NewBoard creates one pending task per category, preserving order.
func NewBoard(categories []Category) *Board {
	b := &Board{
		order: make([]string, 0, len(categories)),
		tasks: make(map[string]*Task, len(categories)),
	}
	for _, c := range categories {
		b.order = append(b.order, c.ID)
		b.tasks[c.ID] = &Task{
			ID:           c.ID,
			CategoryName: c.Name,
			Status:       StatusPending,
		}
	}
	return b
}

// SetStatus advances a task to the given status. Transitions out of a
// terminal state are rejected.
func (b *Board) SetStatus(id string, s Status) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tasks[id]
	if !ok {
		return ErrTaskNotFound
	}
	if t.Status.Terminal() {
		return ErrTerminalState
	}
	t.Status = s
	return nil
}

// Fail moves a task to its terminal error state with a message.
func (b *Board) Fail(id, msg string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tasks[id]
	if !ok {
		return ErrTaskNotFound
	}
	if t.Status.Terminal() {
		return ErrTerminalState
	}
	t.Status = StatusError
	t.Error = msg
	return nil
}

// Complete moves a task to done and records its result.
func (b *Board) Complete(id string, res Result) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tasks[id]
	if !ok {
		return ErrTaskNotFound
	}
	if t.Status.Terminal() {
		return ErrTerminalState
	}
	t.Status = StatusDone
	t.Result = &res
	b.completed++
	return nil
}

// Get returns a copy of the task with the given id.
func (b *Board) Get(id string) (Task, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	t, ok := b.tasks[id]
	if !ok {
		return Task{}, false
	}
	return copyTask(t), true
}

// Snapshot returns copies of all tasks in configured order. Renderers read
// the snapshot and never touch board state.
func (b *Board) Snapshot() []Task {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Task, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, copyTask(b.tasks[id]))
	}
	return out
}

// CompletedCount reports how many tasks reached done.
func (b *Board) CompletedCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.completed
}

// AllTerminal reports whether every task reached done or error.
func (b *Board) AllTerminal() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, t := range b.tasks {
		if !t.Status.Terminal() {
			return false
		}
	}
	return true
}

func copyTask(t *Task) Task {
	out := *t
	if t.Result != nil {
		r := *t.Result
		out.Result = &r
	}
	return out
}
