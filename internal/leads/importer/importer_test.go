package importer

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tealeg/xlsx/v2"
)

func TestParseCSVMapsHeaders(t *testing.T) {
	input := "\uFEFFName, ROLE ,Company,Industry,Location,LinkedIn Bio,extra\n" +
		"Ava Patel,Head of Growth,FlowMetrics,SaaS,Mumbai,\"Scaling B2B, \"\"fast\"\"\",x\n" +
		"Ben,CTO,Acme\n"

	result, err := ParseCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Records) != 2 || result.Skipped != 0 {
		t.Fatalf("expected 2 records, got %+v", result)
	}
	ava := result.Records[0]
	if ava.Name != "Ava Patel" || ava.Role != "Head of Growth" || ava.LinkedInBio != `Scaling B2B, "fast"` {
		t.Fatalf("unexpected first record %+v", ava)
	}
	ben := result.Records[1]
	if ben.Company != "Acme" || ben.Industry != "" || ben.LinkedInBio != "" {
		t.Fatalf("ragged row must leave missing columns empty, got %+v", ben)
	}
}

func TestParseCSVSkipsBlankNames(t *testing.T) {
	input := "name,role\n,CEO\n   ,CTO\nCara,VP\n,,\n"

	result, err := ParseCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Records) != 1 || result.Records[0].Name != "Cara" {
		t.Fatalf("unexpected records %+v", result.Records)
	}
	if result.Skipped != 2 {
		t.Fatalf("expected 2 skipped rows, got %d", result.Skipped)
	}
}

func TestParseCSVSanitizesFields(t *testing.T) {
	input := "name,company\n<script>x</script>Dana,Acme <b>Corp</b>\n"

	result, err := ParseCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := result.Records[0]; got.Name != "xDana" || got.Company != "Acme Corp" {
		t.Fatalf("unexpected sanitised record %+v", got)
	}
}

func TestParseCSVHeaderOnly(t *testing.T) {
	result, err := ParseCSV(strings.NewReader("name,role\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Records) != 0 {
		t.Fatalf("expected no records, got %d", len(result.Records))
	}
}

func TestParseCSVEmptyInput(t *testing.T) {
	_, err := ParseCSV(strings.NewReader(""))
	if !errors.Is(err, ErrNoHeader) {
		t.Fatalf("expected ErrNoHeader, got %v", err)
	}
}

func TestParseCSVWithoutNameColumn(t *testing.T) {
	result, err := ParseCSV(strings.NewReader("role,company\nCEO,Acme\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Records) != 0 || result.Skipped != 1 {
		t.Fatalf("expected the row to be skipped, got %+v", result)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("héllo world", 5); got != "héllo" {
		t.Fatalf("truncate() = %q", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate() = %q", got)
	}
}

func TestParseXLSX(t *testing.T) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Leads")
	if err != nil {
		t.Fatalf("add sheet: %v", err)
	}
	for _, data := range [][]string{
		{"Name", "Role", "Industry"},
		{"Eli", "Director of Sales", "Fintech"},
		{"", "Manager", "Retail"},
	} {
		row := sheet.AddRow()
		for _, value := range data {
			row.AddCell().SetString(value)
		}
	}
	path := filepath.Join(t.TempDir(), "leads.xlsx")
	if err := f.Save(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}

	result, err := ParseXLSX(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Records) != 1 || result.Records[0].Role != "Director of Sales" || result.Skipped != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestParseCSVRejectsMalformedQuotes(t *testing.T) {
	for _, input := range []string{
		"name,company\nAva,Acme \"Labs\"\n",
		"name,company\n\"Ava,Acme\n",
	} {
		if _, err := ParseCSV(strings.NewReader(input)); err == nil {
			t.Fatalf("expected parse error for %q", input)
		}
	}
}
