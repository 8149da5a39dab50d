package entity

import "testing"

func TestSessionStatusPredicates(t *testing.T) {
	cases := []struct {
		status   SessionStatus
		terminal bool
		running  bool
	}{
		{StatusPending, false, false},
		{StatusResearcherRunning, false, true},
		{StatusWriterComplete, false, true},
		{StatusEditorRunning, false, true},
		{StatusComplete, true, false},
		{StatusFailed, true, false},
	}

	for _, tc := range cases {
		if got := tc.status.Terminal(); got != tc.terminal {
			t.Fatalf("%s: Terminal expected %v, got %v", tc.status, tc.terminal, got)
		}
		if got := tc.status.Running(); got != tc.running {
			t.Fatalf("%s: Running expected %v, got %v", tc.status, tc.running, got)
		}
	}
}

func TestDepthLimits(t *testing.T) {
	if !DepthMedium.Valid() || Depth("extreme").Valid() {
		t.Fatalf("unexpected depth validation")
	}
	if DepthMedium.SearchLimit() != 8 || DepthMedium.ScrapeLimit() != 5 {
		t.Fatalf("unexpected medium limits")
	}
	if DepthQuick.ScrapeLimit() >= DepthDeep.ScrapeLimit() {
		t.Fatalf("expected deep to scrape more than quick")
	}
}

func TestWordCount(t *testing.T) {
	if got := WordCount("  one two\nthree\tfour  "); got != 4 {
		t.Fatalf("expected 4 words, got %d", got)
	}
	if got := WordCount(""); got != 0 {
		t.Fatalf("expected 0 words, got %d", got)
	}
}
