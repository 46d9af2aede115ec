package charts

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/crpush/internal/model"
)

func samplePoints() []model.ProgressionPoint {
	base := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	return []model.ProgressionPoint{
		{Index: 1, Label: "S1", Time: base, Trophies: 5030, Delta: 30},
		{Index: 2, Label: "S2", Time: base.Add(2 * time.Hour), Trophies: 5000, Delta: -30},
		{Index: 3, Label: "S3", Time: base.Add(4 * time.Hour), Trophies: 5062, Delta: 62},
	}
}

func TestRenderReport(t *testing.T) {
	days := []model.DailyStats{
		{Key: "2024-01-16", TrophyDelta: 62, WinRate: 100},
		{Key: "2024-01-15", TrophyDelta: 0, WinRate: 50},
	}

	var buf bytes.Buffer
	if err := RenderReport(&buf, samplePoints(), days, DefaultChartConfig()); err != nil {
		t.Fatalf("RenderReport: %v", err)
	}

	html := buf.String()
	for _, want := range []string{"<html", "S1", "S3", "5062", "2024-01-15", "Trophy change"} {
		if !strings.Contains(html, want) {
			t.Errorf("report missing %q", want)
		}
	}
	// Daily bars run oldest to newest.
	if strings.Index(html, "2024-01-15") > strings.Index(html, "2024-01-16") {
		t.Error("daily labels not in chronological order")
	}
}

func TestRenderReportFile_NoDays(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.html")
	if err := RenderReportFile(path, samplePoints(), nil, DefaultChartConfig()); err != nil {
		t.Fatalf("RenderReportFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "Trophy change") {
		t.Error("daily chart rendered without days")
	}
}
