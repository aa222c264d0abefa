package cmd

import (
	"strings"
	"testing"

	"github.com/rubiojr/signalscope/pkg/selection"
	"github.com/rubiojr/signalscope/pkg/sensor"
	"github.com/rubiojr/signalscope/pkg/series"
)

func TestParseQualities(t *testing.T) {
	set, err := parseQualities([]string{"good", "bad"})
	if err != nil {
		t.Fatal(err)
	}
	if set != selection.QualitiesOf(sensor.QualityGood, sensor.QualityBad) {
		t.Fatalf("unexpected set %v", set.List())
	}
	if _, err := parseQualities([]string{"excellent"}); err == nil {
		t.Fatal("expected error for unknown quality")
	}
}

func TestRenderAligned(t *testing.T) {
	tags := sensor.Flatten(testDataset())
	selected := selection.New().ToggleTag("flow").ToggleTag("pressure").Resolve(tags)
	out := renderAligned(selected, series.Align(selected), selection.AllQualities)

	for _, want := range []string{"TIMESTAMP", "2024-01-01T00:00:00Z", "2024-01-01T01:00:00Z", "12.5", "101.3", "2 data points", "Mixed Units"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRenderTags(t *testing.T) {
	out := renderTags(sensor.Flatten(testDataset()))
	for _, want := range []string{"3 sensors", "West Weir > Pump A > Flow", "L/s"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
	if out := renderTags(nil); !strings.Contains(out, "No sensors") {
		t.Fatalf("unexpected empty output %q", out)
	}
}
