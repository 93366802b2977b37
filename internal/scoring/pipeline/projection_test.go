package pipeline

import (
	"bytes"
	"context"
	"testing"

	"leadscore_backend/platform/apperr"
)

type fakeReader struct {
	rows   []ResultRow
	filter ResultFilter
}

func (f *fakeReader) ListResults(_ context.Context, filter ResultFilter) ([]ResultRow, error) {
	f.filter = filter
	return f.rows, nil
}

func TestExportCSV(t *testing.T) {
	reader := &fakeReader{rows: []ResultRow{
		{Name: "Ava", Role: "CTO", Company: "Acme", Intent: IntentHigh, Score: 100, Reasoning: "Rule score: 50/50, AI score: 50/50. Great fit, \"top\" pick."},
		{Name: "Bo", Role: "", Company: "Beta, Inc", Intent: IntentLow, Score: 10, Reasoning: "Rule score: 0/50, AI score: 10/50. No fit."},
	}}

	var buf bytes.Buffer
	if err := NewProjection(reader).ExportCSV(context.Background(), ResultFilter{}, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "name,role,company,intent,score,reasoning\n" +
		`"Ava","CTO","Acme","High",100,"Rule score: 50/50, AI score: 50/50. Great fit, ""top"" pick."` + "\n" +
		`"Bo","","Beta, Inc","Low",10,"Rule score: 0/50, AI score: 10/50. No fit."`
	if buf.String() != want {
		t.Fatalf("unexpected csv:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestExportCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	err := NewProjection(&fakeReader{}).ExportCSV(context.Background(), ResultFilter{}, &buf)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no body, got %q", buf.String())
	}
}
