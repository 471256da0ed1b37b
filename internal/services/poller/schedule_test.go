package poller

import "testing"

func TestParseScheduleVariants(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "cron", raw: "*/5 * * * *", want: "*/5 * * * *"},
		{name: "descriptor", raw: "@hourly", want: "@hourly"},
		{name: "every", raw: "@every 2m", want: "@every 2m"},
		{name: "duration", raw: "2m", want: "@every 2m0s"},
		{name: "compound duration", raw: "1h30m", want: "@every 1h30m0s"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseSchedule(tt.raw)
			if err != nil {
				t.Fatalf("ParseSchedule(%q) error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Fatalf("ParseSchedule(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseScheduleInvalid(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{"", "not-a-schedule", "-2m", "0s"} {
		if _, err := ParseSchedule(raw); err == nil {
			t.Fatalf("ParseSchedule(%q) succeeded, want error", raw)
		}
	}
}
