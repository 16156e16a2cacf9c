package storage

import (
	"os"
	"path/filepath"
	"testing"
)

const testBib = `@article{Noel2016,
doi = {10.1109/TNB.2016.1234567},
issn = {1536-1241},
title = {{A Unifying Model}},
year = {2016}
}

@misc{Web2019,
title = {Some Web Page},
url = {https://example.org/page},
}

@article{Draft2021,
title = {A Draft Without a Year},
}
`

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenDB() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func writeTestBib(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "library.bib")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRebuildFromBib(t *testing.T) {
	db := openTestDB(t)

	n, err := db.RebuildFromBib(writeTestBib(t, testBib))
	if err != nil {
		t.Fatalf("RebuildFromBib() error = %v", err)
	}
	if n != 3 {
		t.Errorf("RebuildFromBib() = %d, want 3", n)
	}

	count, err := db.Count()
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 3 {
		t.Errorf("Count() = %d, want 3", count)
	}
}

func TestRebuildFromBib_Replaces(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.RebuildFromBib(writeTestBib(t, testBib)); err != nil {
		t.Fatalf("RebuildFromBib() error = %v", err)
	}
	one := "@article{Only2020,\nyear = {2020}\n}\n"
	n, err := db.RebuildFromBib(writeTestBib(t, one))
	if err != nil {
		t.Fatalf("RebuildFromBib() error = %v", err)
	}
	if n != 1 {
		t.Errorf("RebuildFromBib() = %d, want 1", n)
	}

	count, _ := db.Count()
	if count != 1 {
		t.Errorf("Count() after rebuild = %d, want 1", count)
	}
}

func TestRebuildFromBib_MissingFile(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.RebuildFromBib(filepath.Join(t.TempDir(), "nope.bib")); err == nil {
		t.Error("RebuildFromBib() should fail for a missing file")
	}
}

func TestList_Filters(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.RebuildFromBib(writeTestBib(t, testBib)); err != nil {
		t.Fatalf("RebuildFromBib() error = %v", err)
	}

	tests := []struct {
		name     string
		filters  Filters
		wantKeys []string
	}{
		{
			name:     "no filters",
			filters:  Filters{},
			wantKeys: []string{"Draft2021", "Noel2016", "Web2019"},
		},
		{
			name:     "by type",
			filters:  Filters{Type: "article"},
			wantKeys: []string{"Draft2021", "Noel2016"},
		},
		{
			name:     "missing year",
			filters:  Filters{MissingYear: true},
			wantKeys: []string{"Draft2021", "Web2019"},
		},
		{
			name:     "no doi",
			filters:  Filters{NoDOI: true},
			wantKeys: []string{"Draft2021", "Web2019"},
		},
		{
			name:     "combined",
			filters:  Filters{Type: "article", MissingYear: true},
			wantKeys: []string{"Draft2021"},
		},
		{
			name:     "fts over title",
			filters:  Filters{Search: "unifying"},
			wantKeys: []string{"Noel2016"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.List(tt.filters, 50)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(got) != len(tt.wantKeys) {
				t.Fatalf("List() returned %d entries, want %d: %+v", len(got), len(tt.wantKeys), got)
			}
			for i, e := range got {
				if e.Key != tt.wantKeys[i] {
					t.Errorf("List()[%d].Key = %q, want %q", i, e.Key, tt.wantKeys[i])
				}
			}
		})
	}
}

func TestList_FieldsPopulated(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.RebuildFromBib(writeTestBib(t, testBib)); err != nil {
		t.Fatalf("RebuildFromBib() error = %v", err)
	}

	got, err := db.List(Filters{Type: "article", NoDOI: false}, 1)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) == 0 {
		t.Fatal("List() returned no entries")
	}

	e := got[0] // Draft2021 sorts first
	if e.Key != "Draft2021" || e.Type != "article" {
		t.Errorf("unexpected first entry: %+v", e)
	}

	all, err := db.List(Filters{Search: "unifying"}, 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("List() returned %d entries, want 1", len(all))
	}
	noel := all[0]
	if noel.DOI != "10.1109/TNB.2016.1234567" {
		t.Errorf("DOI = %q", noel.DOI)
	}
	if noel.Year != "2016" {
		t.Errorf("Year = %q", noel.Year)
	}
	if noel.ISSN != "1536-1241" {
		t.Errorf("ISSN = %q", noel.ISSN)
	}
	// Doubled braces from the export are stripped for indexing.
	if noel.Title != "A Unifying Model" {
		t.Errorf("Title = %q, want %q", noel.Title, "A Unifying Model")
	}
}

func TestList_Limit(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.RebuildFromBib(writeTestBib(t, testBib)); err != nil {
		t.Fatalf("RebuildFromBib() error = %v", err)
	}

	got, err := db.List(Filters{}, 2)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("List() returned %d entries, want 2", len(got))
	}
}
