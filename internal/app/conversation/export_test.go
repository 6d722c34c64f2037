package conversation

// TrackedUsers reports how many users currently have a single-flight gate.
func (s *Service) TrackedUsers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.flight)
}
