package presenter

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/foliohq/folio-cli/internal/models"
)

func TestLookupByName(t *testing.T) {
	for _, name := range []string{"profile", "experience", "notification", "completeness"} {
		if LookupByName(name) == nil {
			t.Errorf("LookupByName(%q) = nil, want schema", name)
		}
	}
	if LookupByName("nope") != nil {
		t.Error("LookupByName(nope) should be nil")
	}
}

func TestDetect(t *testing.T) {
	if s := Detect(map[string]any{"headline": "x"}, "profile"); s == nil || s.Entity != "profile" {
		t.Error("explicit hint should win")
	}
	if s := Detect(map[string]any{"type": "Notification"}, ""); s == nil || s.Entity != "notification" {
		t.Error("type key detection failed for map")
	}
	if s := Detect([]map[string]any{{"type": "Experience"}}, ""); s == nil || s.Entity != "experience" {
		t.Error("type key detection failed for slice")
	}
	if Detect(map[string]any{"headline": "x"}, "") != nil {
		t.Error("untyped data without hint should not match")
	}
}

func TestNewLocale(t *testing.T) {
	tests := []struct {
		raw  string
		date string
	}{
		{"en_US.UTF-8", "Jan 2, 2006"},
		{"en-GB", "2 Jan 2006"},
		{"de_DE.UTF-8", "2 Jan 2006"},
		{"ja_JP.UTF-8", "2006-01-02"},
		{"", "Jan 2, 2006"},
		{"garbage!!", "Jan 2, 2006"},
	}
	ref := time.Date(2006, time.January, 2, 0, 0, 0, 0, time.UTC)
	for _, tt := range tests {
		loc := NewLocale(tt.raw)
		if got := loc.FormatDate(ref); got != tt.date {
			t.Errorf("NewLocale(%q).FormatDate = %q, want %q", tt.raw, got, tt.date)
		}
	}
}

func TestFormatNumberGrouping(t *testing.T) {
	loc := NewLocale("en-US")
	if got := loc.FormatNumber(1234567); got != "1,234,567" {
		t.Errorf("FormatNumber(1234567) = %q", got)
	}
	loc = NewLocale("de-DE")
	if got := loc.FormatNumber(1234567); got != "1.234.567" {
		t.Errorf("de FormatNumber(1234567) = %q", got)
	}
}

func TestFormatField(t *testing.T) {
	loc := NewLocale("en-US")
	tests := []struct {
		name string
		spec FieldSpec
		val  any
		want string
	}{
		{"text", FieldSpec{}, "hello", "hello"},
		{"nil", FieldSpec{}, nil, ""},
		{"date", FieldSpec{Format: "date"}, "2024-03-15", "Mar 15, 2024"},
		{"date rfc3339", FieldSpec{Format: "date"}, "2024-03-15T10:00:00Z", "Mar 15, 2024"},
		{"date garbage", FieldSpec{Format: "date"}, "not-a-date", "not-a-date"},
		{"percent", FieldSpec{Format: "percent"}, float64(70), "70%"},
		{"list strings", FieldSpec{Format: "list"}, []any{"Go", "SQL"}, "Go, SQL"},
		{"list named", FieldSpec{Format: "list"}, []any{map[string]any{"name": "Ada"}}, "Ada"},
		{"bool default", FieldSpec{Format: "boolean"}, true, "yes"},
		{"bool labelled", FieldSpec{Format: "boolean", Labels: map[string]string{"false": "unread"}}, false, "unread"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatField(tt.spec, tt.val, loc); got != tt.want {
				t.Errorf("FormatField = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatRelativeTime(t *testing.T) {
	loc := NewLocale("en-US")
	recent := time.Now().Add(-2 * time.Hour).Format(time.RFC3339)
	if got := formatRelativeTime(recent, loc); got != "2 hours ago" {
		t.Errorf("formatRelativeTime = %q, want %q", got, "2 hours ago")
	}
	if got := formatRelativeTime(time.Now().Add(-10*time.Second).Format(time.RFC3339), loc); got != "just now" {
		t.Errorf("formatRelativeTime = %q, want just now", got)
	}
}

func TestRenderHeadline(t *testing.T) {
	schema := LookupByName("experience")
	got := RenderHeadline(schema, map[string]any{"title": "Engineer", "company": "Folio"})
	if got != "Engineer at Folio" {
		t.Errorf("RenderHeadline = %q", got)
	}
}

func TestRenderDetailSkipsEmptySections(t *testing.T) {
	var buf bytes.Buffer
	schema := LookupByName("profile")
	data := map[string]any{"headline": "Engineer", "location": "Berlin"}
	if err := RenderDetail(&buf, schema, data, NewLocale("en-US")); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "Engineer") || !strings.Contains(out, "Berlin") {
		t.Errorf("detail missing fields:\n%s", out)
	}
	if strings.Contains(out, "Skills") {
		t.Errorf("empty Skills section should be skipped:\n%s", out)
	}
}

func TestRenderList(t *testing.T) {
	var buf bytes.Buffer
	schema := LookupByName("notification")
	rows := []map[string]any{
		{"id": "n1", "kind": "view", "message": "Someone viewed your profile", "read": false, "created_at": "2024-01-01T00:00:00Z"},
	}
	if err := RenderList(&buf, schema, rows, NewLocale("en-US")); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "MESSAGE") {
		t.Errorf("list missing header:\n%s", out)
	}
	if !strings.Contains(out, "unread") {
		t.Errorf("boolean label not applied:\n%s", out)
	}
}

func TestPresentFallsBackWithoutSchema(t *testing.T) {
	var buf bytes.Buffer
	if Present(&buf, map[string]any{"x": 1}, "") {
		t.Error("Present should report false for unknown data")
	}
}

func TestToMaps(t *testing.T) {
	maps := ToMaps([]models.Notification{{ID: "n1", Message: "hi"}})
	if len(maps) != 1 || maps[0]["id"] != "n1" {
		t.Errorf("ToMaps = %v", maps)
	}
}
