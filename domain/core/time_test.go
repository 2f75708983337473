package core

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestTimestamp_UTCSeconds(t *testing.T) {
	ts := Now()
	if ts.Time().Location() != time.UTC {
		t.Fatalf("Now() location = %v, want UTC", ts.Time().Location())
	}
	if ts.Time().Nanosecond() != 0 {
		t.Fatalf("Now() keeps sub-second precision: %v", ts.Time())
	}

	data, err := json.Marshal(ts)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if got := strings.Trim(string(data), `"`); got != ts.String() {
		t.Fatalf("JSON %s does not match String() %s", got, ts.String())
	}
}
