package scheduler

import "testing"

func TestAddJobRejectsInvalidExpression(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	if err := s.AddJob("not a cron expr", func() {}); err == nil {
		t.Error("expected error for invalid cron expression")
	}
	if err := s.AddJob("0 3 * * *", func() {}); err != nil {
		t.Errorf("valid expression rejected: %v", err)
	}
}
