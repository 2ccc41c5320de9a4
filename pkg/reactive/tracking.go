package reactive

// trackScope records every source read during one derived/effect evaluation.
// Scopes nest: a derived read inside an effect body pushes its own scope for
// the inner computation, so each node only sees its own direct reads.
type trackScope struct {
	reads []sourceRef
	seen  map[sourceRef]struct{}
}

// pushScope starts a new tracking scope for an evaluation.
func (s *Store) pushScope() {
	s.scopeMu.Lock()
	defer s.scopeMu.Unlock()
	s.scopes = append(s.scopes, &trackScope{seen: make(map[sourceRef]struct{})})
}

// popScope ends the current scope and returns the recorded reads in order.
func (s *Store) popScope() []sourceRef {
	s.scopeMu.Lock()
	defer s.scopeMu.Unlock()
	if len(s.scopes) == 0 {
		return nil
	}
	scope := s.scopes[len(s.scopes)-1]
	s.scopes = s.scopes[:len(s.scopes)-1]
	return scope.reads
}

// recordRead adds a source to the innermost active scope, deduplicated.
// Outside any scope this is a no-op: untracked reads create no dependency.
func (s *Store) recordRead(src sourceRef) {
	s.scopeMu.Lock()
	defer s.scopeMu.Unlock()
	if len(s.scopes) == 0 {
		return
	}
	scope := s.scopes[len(s.scopes)-1]
	if _, dup := scope.seen[src]; dup {
		return
	}
	scope.seen[src] = struct{}{}
	scope.reads = append(scope.reads, src)
}

// Untracked runs fn without recording signal reads as dependencies.
// Reads inside fn behave like Peek.
func (s *Store) Untracked(fn func()) {
	s.scopeMu.Lock()
	saved := s.scopes
	s.scopes = nil
	s.scopeMu.Unlock()

	defer func() {
		s.scopeMu.Lock()
		s.scopes = saved
		s.scopeMu.Unlock()
	}()

	fn()
}
