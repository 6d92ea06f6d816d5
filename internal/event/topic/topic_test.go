package topic

import "testing"

func TestTopicMatches(t *testing.T) {
	tests := []struct {
		topic   Topic
		pattern Topic
		want    bool
	}{
		{"chart.waypoint.moved", "chart.waypoint.moved", true},
		{"chart.waypoint.moved", "chart.waypoint.*", true},
		{"chart.waypoint.moved", "chart.*", false},
		{"chart.waypoint.moved", "chart.**", true},
		{"chart.waypoint.moved", "**", true},
		{"chart.waypoint.moved", "*.waypoint.*", true},
		{"chart.waypoint.moved", "chart.**.moved", true},
		{"chart.moved", "chart.**.moved", true},
		{"chart.history.undo", "chart.waypoint.*", false},
		{"chart", "chart.*", false},
		{"chart.waypoint", "chart.waypoint.moved", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.topic)+"~"+string(tt.pattern), func(t *testing.T) {
			if got := tt.topic.Matches(tt.pattern); got != tt.want {
				t.Errorf("%q.Matches(%q) = %v, want %v", tt.topic, tt.pattern, got, tt.want)
			}
		})
	}
}

func TestTopicIsValid(t *testing.T) {
	tests := []struct {
		topic Topic
		want  bool
	}{
		{"chart", true},
		{"chart.waypoint.created", true},
		{"chart.**", true},
		{"", false},
		{".chart", false},
		{"chart.", false},
		{"chart..moved", false},
	}

	for _, tt := range tests {
		if got := tt.topic.IsValid(); got != tt.want {
			t.Errorf("%q.IsValid() = %v, want %v", tt.topic, got, tt.want)
		}
	}
}

func TestTopicHelpers(t *testing.T) {
	tp := Topic("chart.waypoint.moved")
	if got := tp.Segments(); len(got) != 3 || got[2] != "moved" {
		t.Errorf("Segments = %v", got)
	}
	if tp.IsWildcard() {
		t.Error("IsWildcard = true for a plain topic")
	}
	if !Topic("chart.*").IsWildcard() {
		t.Error("IsWildcard = false for chart.*")
	}
	if n := len(Topic("").Segments()); n != 0 {
		t.Errorf("empty topic has %d segments", n)
	}
}
