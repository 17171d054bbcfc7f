package services_test

import (
	"fmt"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"devstore/internal/domain"
	"devstore/internal/repos"
	"devstore/internal/services"
)

// memdb opens a seeded in-memory database (demo projects, licenses, users).
func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	return db
}

func TestFilterState_CategoryResetsType(t *testing.T) {
	f := services.NewFilterState()
	f.SelectType("landing page")
	f.SelectLicense("premium")

	f.SelectCategory("application")
	if f.Type != "all" {
		t.Fatalf("type should reset on category change, got %q", f.Type)
	}
	if f.License != "premium" {
		t.Fatalf("license should survive category change, got %q", f.License)
	}

	// empty and whitespace selectors normalize to "all"
	f.SelectCategory("  ")
	if f.Category != "all" {
		t.Fatalf("want all, got %q", f.Category)
	}
}

func TestCatalog_Filtering(t *testing.T) {
	db := memdb(t)
	cat := services.NewCatalogService(repos.NewProjectRepo(db))
	if err := cat.Refresh(); err != nil {
		t.Fatal(err)
	}
	if len(cat.Snapshot()) != 3 {
		t.Fatalf("want 3 seeded projects, got %d", len(cat.Snapshot()))
	}

	f := services.NewFilterState()
	f.SelectCategory("WEBSITE") // matching is case-insensitive
	got := cat.Filtered(f)
	if len(got) != 2 {
		t.Fatalf("want 2 website projects, got %d", len(got))
	}

	f.SelectType("portfolio")
	got = cat.Filtered(f)
	if len(got) != 1 || got[0].ID != "prj-portfolio" {
		t.Fatalf("want prj-portfolio only, got %+v", got)
	}

	// "all" bypasses every selector
	f = services.NewFilterState()
	if len(cat.Filtered(f)) != 3 {
		t.Fatal("all/all/all should pass everything")
	}

	f.SelectLicense("free")
	got = cat.Filtered(f)
	if len(got) != 1 || got[0].ID != "prj-portfolio" {
		t.Fatalf("want the free project, got %+v", got)
	}
}

func TestCatalog_Paging(t *testing.T) {
	db := memdb(t)
	cat := services.NewCatalogService(repos.NewProjectRepo(db))
	if err := cat.Refresh(); err != nil {
		t.Fatal(err)
	}

	f := services.NewFilterState()
	items, total := cat.Page(f, 0)
	if total != 1 || len(items) != 3 {
		t.Fatalf("want 1 page of 3, got total=%d len=%d", total, len(items))
	}
	if items, total = cat.Page(f, 1); items != nil || total != 1 {
		t.Fatalf("out-of-range page should be empty, got len=%d", len(items))
	}

	// 20 synthetic projects: 9+9+2 across three pages
	many := make([]domain.Project, 20)
	for i := range many {
		many[i] = domain.Project{ID: fmt.Sprintf("p-%02d", i), Title: "P", TypeCategory: "website"}
	}
	if !cat.Apply(cat.Version()+1, many) {
		t.Fatal("newer snapshot should apply")
	}
	if _, total = cat.Page(f, 0); total != 3 {
		t.Fatalf("want 3 pages for 20 items, got %d", total)
	}
	if items, _ = cat.Page(f, 2); len(items) != 2 {
		t.Fatalf("last page should hold 2 items, got %d", len(items))
	}

	// empty set has zero pages
	if !cat.Apply(cat.Version()+1, nil) {
		t.Fatal("empty snapshot should apply")
	}
	if items, total = cat.Page(f, 0); total != 0 || items != nil {
		t.Fatalf("want 0 pages, got total=%d len=%d", total, len(items))
	}
}

func TestCatalog_StaleSnapshotIgnored(t *testing.T) {
	db := memdb(t)
	cat := services.NewCatalogService(repos.NewProjectRepo(db))
	if err := cat.Refresh(); err != nil {
		t.Fatal(err)
	}
	v := cat.Version()

	if cat.Apply(v, nil) {
		t.Fatal("same-version snapshot must be rejected")
	}
	if cat.Apply(v-1, nil) {
		t.Fatal("older snapshot must be rejected")
	}
	if len(cat.Snapshot()) != 3 {
		t.Fatal("stale apply should not touch the snapshot")
	}
	if !cat.Apply(v+1, nil) {
		t.Fatal("newer snapshot must apply")
	}
}
