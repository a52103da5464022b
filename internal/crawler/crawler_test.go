package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/dapurkita/chefchimi/internal/log"
)

func recipePage(title string) string {
	return fmt.Sprintf(`<html><body>
<h1>%s</h1>
<div class="_recipe-ingredients">
  <p class="recipe-ingredients-title">Bahan</p>
  <div class="d-flex"><div class="part">1 ekor</div><div class="item">ayam</div></div>
</div>
<div class="_recipe-steps">
  <div class="step"><div class="content"><p>Masak sampai matang.</p></div></div>
</div>
</body></html>`, title)
}

func categoryPage(links ...string) string {
	page := "<html><body>"
	for _, link := range links {
		page += fmt.Sprintf(`<div class="col _recipe-card"><a class="stretched-link" href="%s">resep</a></div>`, link)
	}
	return page + "</body></html>"
}

func newTestSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/resep/", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/resep/":
			fmt.Fprint(w, categoryPage("/resep/ayam-bakar/", "/resep/soto-ayam/"))
		case "/resep/page/2/":
			// Second page repeats one link to exercise dedup.
			fmt.Fprint(w, categoryPage("/resep/soto-ayam/", "/resep/gulai-kambing/"))
		case "/resep/ayam-bakar/":
			fmt.Fprint(w, recipePage("Ayam Bakar"))
		case "/resep/soto-ayam/":
			fmt.Fprint(w, recipePage("Soto Ayam"))
		case "/resep/gulai-kambing/":
			fmt.Fprint(w, recipePage("Gulai Kambing"))
		default:
			http.NotFound(w, r)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRun(t *testing.T) {
	srv := newTestSite(t)
	outDir := t.TempDir()

	c := New(Config{
		BaseURL:   srv.URL + "/resep/",
		StartPage: 1,
		EndPage:   2,
		OutDir:    outDir,
	}, log.NewNop())

	result, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Links != 3 {
		t.Errorf("links = %d, want 3 unique across both pages", result.Links)
	}
	if result.Scraped != 3 || result.Failed != 0 {
		t.Errorf("scraped = %d, failed = %d, want 3 and 0", result.Scraped, result.Failed)
	}

	for _, name := range []string{"Ayam_Bakar.txt", "Soto_Ayam.txt", "Gulai_Kambing.txt"} {
		data, err := os.ReadFile(filepath.Join(outDir, name))
		if err != nil {
			t.Fatalf("missing output file %s: %v", name, err)
		}
		if len(data) == 0 {
			t.Errorf("%s is empty", name)
		}
	}
}

func TestRun_ResumeSkipsExistingFiles(t *testing.T) {
	srv := newTestSite(t)
	outDir := t.TempDir()

	cfg := Config{BaseURL: srv.URL + "/resep/", StartPage: 1, EndPage: 2, OutDir: outDir}
	if _, err := New(cfg, log.NewNop()).Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	result, err := New(cfg, log.NewNop()).Run(context.Background())
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if result.Skipped != 3 || result.Scraped != 0 {
		t.Errorf("skipped = %d, scraped = %d, want all 3 skipped on resume", result.Skipped, result.Scraped)
	}
}

func TestRun_UnreachableCategoryPageFails(t *testing.T) {
	srv := newTestSite(t)
	cfg := Config{BaseURL: srv.URL + "/tidak-ada/", StartPage: 1, EndPage: 1, OutDir: t.TempDir()}

	if _, err := New(cfg, log.NewNop()).Run(context.Background()); err == nil {
		t.Fatal("Run() = nil error, want failure for a missing category page")
	}
}
