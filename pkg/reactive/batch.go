package reactive

// StartBatch opens a batch scope. Writes inside a batch queue their effect
// subscribers instead of running them; the queue drains when the depth
// returns to zero.
func (s *Store) StartBatch() {
	s.mu.Lock()
	s.batchDepth++
	s.mu.Unlock()
}

// EndBatch closes one batch scope. When the outermost scope closes, pending
// effects drain in queue order, each observing the final values of the
// batch. Extra EndBatch calls with no open scope are ignored.
//
// If an earlier batch was left unclosed by a panic, its queued effects are
// not lost: they drain on the next successful EndBatch.
func (s *Store) EndBatch() {
	s.mu.Lock()
	if s.batchDepth > 0 {
		s.batchDepth--
	}
	drain := s.batchDepth == 0 && !s.draining
	s.mu.Unlock()

	if drain {
		s.flushEffects()
	}
}

// Batch runs fn inside a batch scope. Batches nest; effects fire once when
// the outermost batch completes.
func (s *Store) Batch(fn func()) {
	s.StartBatch()
	defer s.EndBatch()
	fn()
}

// BatchDepth reports the current nesting depth. Zero means writes flush
// effects immediately.
func (s *Store) BatchDepth() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.batchDepth
}

// FlushPending drains the pending effect queue now if no batch is open.
// The update loop calls this at the end of a cycle to pick up effects that
// were deferred while a previous drain was in progress.
func (s *Store) FlushPending() {
	s.flushEffects()
}

// flushEffects drains the current pending queue exactly once. Effects
// queued while the drain is in progress stay pending for the next drain.
func (s *Store) flushEffects() {
	s.mu.Lock()
	if s.draining || s.batchDepth > 0 || len(s.pending) == 0 {
		s.mu.Unlock()
		return
	}
	s.draining = true
	queue := s.pending
	s.pending = nil
	s.pendingSet = make(map[EffectID]struct{})
	s.mu.Unlock()

	for _, id := range queue {
		s.runEffect(id)
	}

	s.mu.Lock()
	s.draining = false
	s.mu.Unlock()
}
