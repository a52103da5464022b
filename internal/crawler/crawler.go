// Package crawler harvests recipe pages from masakapahariini.com and
// writes them as flat text documents for ingestion.
package crawler

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/gofrs/flock"

	"github.com/dapurkita/chefchimi/internal/log"
)

const userAgent = "chefchimi-crawler/1.0"

// Result summarizes one crawl run.
type Result struct {
	Links   int
	Scraped int
	Skipped int
	Failed  int
}

// Crawler walks category pages for recipe links, then scrapes each recipe
// into a text file. Recipes whose output file already exists are skipped,
// so interrupted runs resume where they left off.
type Crawler struct {
	baseURL   string
	startPage int
	endPage   int
	outDir    string
	delay     time.Duration
	logger    log.Logger
}

// Config carries the crawl parameters.
type Config struct {
	// BaseURL is the recipe category listing, e.g.
	// https://www.masakapahariini.com/resep/.
	BaseURL   string
	StartPage int
	EndPage   int
	// OutDir receives one .txt file per recipe.
	OutDir string
	// Delay is the pause between page fetches.
	Delay time.Duration
}

// New creates a crawler.
func New(cfg Config, logger log.Logger) *Crawler {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Crawler{
		baseURL:   cfg.BaseURL,
		startPage: cfg.StartPage,
		endPage:   cfg.EndPage,
		outDir:    cfg.OutDir,
		delay:     cfg.Delay,
		logger:    logger,
	}
}

// Run crawls the configured page range. The output directory is guarded
// by a file lock so two crawl runs never interleave writes.
func (c *Crawler) Run(ctx context.Context) (Result, error) {
	if err := os.MkdirAll(c.outDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create output directory: %w", err)
	}

	lock := flock.New(filepath.Join(c.outDir, ".crawl.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return Result{}, fmt.Errorf("acquire crawl lock: %w", err)
	}
	if !locked {
		return Result{}, fmt.Errorf("another crawl is already running against %s", c.outDir)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			c.logger.Warn("failed to release crawl lock", "error", err)
		}
	}()

	links, err := c.collectLinks(ctx)
	if err != nil {
		return Result{}, err
	}
	c.logger.Info("collected recipe links", "count", len(links))

	result := Result{Links: len(links)}
	for _, link := range links {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		// Guess the output name from the URL slug so already-scraped
		// recipes are skipped without a fetch.
		guess := filepath.Join(c.outDir, safeFilename(titleFromURL(link)))
		if _, err := os.Stat(guess); err == nil {
			c.logger.Debug("recipe already scraped, skipping", "url", link)
			result.Skipped++
			continue
		}

		if err := c.scrapeRecipe(ctx, link); err != nil {
			c.logger.Warn("failed to scrape recipe", "url", link, "error", err)
			result.Failed++
			continue
		}
		result.Scraped++
	}

	c.logger.Info("crawl complete",
		"links", result.Links,
		"scraped", result.Scraped,
		"skipped", result.Skipped,
		"failed", result.Failed)
	return result, nil
}

// collectLinks visits each category page in the range and gathers the
// unique recipe links, sorted for a stable scrape order.
func (c *Crawler) collectLinks(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})

	collector, err := c.newCollector()
	if err != nil {
		return nil, err
	}
	collector.OnHTML("div[class*=_recipe-card] a.stretched-link[href]", func(e *colly.HTMLElement) {
		link := e.Request.AbsoluteURL(e.Attr("href"))
		if link != "" {
			seen[link] = struct{}{}
		}
	})

	for page := c.startPage; page <= c.endPage; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pageURL := c.baseURL
		if page > 1 {
			pageURL = fmt.Sprintf("%spage/%d/", c.baseURL, page)
		}
		c.logger.Debug("visiting category page", "url", pageURL)
		if err := collector.Visit(pageURL); err != nil {
			return nil, fmt.Errorf("visit category page %s: %w", pageURL, err)
		}
	}

	links := make([]string, 0, len(seen))
	for link := range seen {
		links = append(links, link)
	}
	sort.Strings(links)
	return links, nil
}

// scrapeRecipe fetches one recipe page, parses it and writes the text file.
func (c *Crawler) scrapeRecipe(ctx context.Context, link string) error {
	collector, err := c.newCollector()
	if err != nil {
		return err
	}

	var recipe Recipe
	var parseErr error
	collector.OnHTML("html", func(e *colly.HTMLElement) {
		recipe, parseErr = parseRecipe(e.DOM, link)
	})

	if err := collector.Visit(link); err != nil {
		return fmt.Errorf("fetch recipe page: %w", err)
	}
	if parseErr != nil {
		return parseErr
	}
	if recipe.Title == "" {
		return fmt.Errorf("no recipe content found at %s", link)
	}

	path := filepath.Join(c.outDir, safeFilename(recipe.Title))
	if err := os.WriteFile(path, []byte(formatRecipe(recipe)), 0o644); err != nil {
		return fmt.Errorf("write recipe file: %w", err)
	}
	c.logger.Info("saved recipe", "title", recipe.Title, "path", path)
	return nil
}

func (c *Crawler) newCollector() (*colly.Collector, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	collector := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.AllowedDomains(base.Hostname()),
	)
	if err := collector.Limit(&colly.LimitRule{DomainGlob: "*", Delay: c.delay}); err != nil {
		return nil, fmt.Errorf("configure rate limit: %w", err)
	}
	return collector, nil
}
