package crawler

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// IngredientGroup is one titled section of the ingredient list, e.g.
// "Bumbu halus".
type IngredientGroup struct {
	Title string
	Items []string
}

// Recipe is the structured content of one recipe page.
type Recipe struct {
	Title       string
	Ingredients []IngredientGroup
	Steps       []string
	// Fallback holds readability-extracted text when the page does not
	// follow the known recipe markup.
	Fallback string
}

// parseRecipe extracts a recipe from the page. Pages that match the known
// card markup yield structured ingredients and steps; anything else falls
// back to readability extraction of the main content.
func parseRecipe(doc *goquery.Selection, pageURL string) (Recipe, error) {
	recipe := Recipe{
		Title: strings.TrimSpace(doc.Find("h1").First().Text()),
	}

	doc.Find("div[class*=_recipe-ingredients] p.recipe-ingredients-title").Each(func(_ int, group *goquery.Selection) {
		g := IngredientGroup{Title: strings.TrimSpace(group.Text())}
		group.NextFilteredUntil("div.d-flex", "p.recipe-ingredients-title").Each(func(_ int, item *goquery.Selection) {
			quantity := strings.TrimSpace(item.Find("div.part").First().Text())
			name := strings.Join(strings.Fields(item.Find("div.item").First().Text()), " ")
			if name != "" {
				g.Items = append(g.Items, strings.TrimSpace(quantity+" "+name))
			}
		})
		if len(g.Items) > 0 {
			recipe.Ingredients = append(recipe.Ingredients, g)
		}
	})

	doc.Find("div[class*=_recipe-steps] div.step div.content p").Each(func(_ int, step *goquery.Selection) {
		text := strings.TrimSpace(step.Text())
		if text != "" {
			recipe.Steps = append(recipe.Steps, text)
		}
	})

	if len(recipe.Ingredients) > 0 && len(recipe.Steps) > 0 {
		return recipe, nil
	}

	// Unknown markup: keep whatever readable text the page has.
	html, err := goquery.OuterHtml(doc)
	if err != nil {
		return Recipe{}, fmt.Errorf("serialize page: %w", err)
	}
	u, err := url.Parse(pageURL)
	if err != nil {
		return Recipe{}, fmt.Errorf("parse page URL: %w", err)
	}
	article, err := readability.FromReader(strings.NewReader(html), u)
	if err != nil {
		return Recipe{}, fmt.Errorf("extract readable content: %w", err)
	}
	if recipe.Title == "" {
		recipe.Title = strings.TrimSpace(article.Title)
	}
	recipe.Ingredients = nil
	recipe.Steps = nil
	recipe.Fallback = strings.TrimSpace(article.TextContent)
	if recipe.Fallback == "" {
		return Recipe{}, fmt.Errorf("page has no extractable content")
	}
	return recipe, nil
}

// formatRecipe renders the flat text layout the ingester consumes.
func formatRecipe(r Recipe) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Judul: %s\n", r.Title)

	if r.Fallback != "" {
		sb.WriteString("\n")
		sb.WriteString(r.Fallback)
		sb.WriteString("\n")
		return sb.String()
	}

	for _, group := range r.Ingredients {
		if group.Title != "" {
			fmt.Fprintf(&sb, "\n%s:\n", strings.TrimSuffix(group.Title, ":"))
		}
		for _, item := range group.Items {
			fmt.Fprintf(&sb, "  - %s\n", item)
		}
	}

	sb.WriteString("\nLangkah-langkah:\n")
	for i, step := range r.Steps {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, step)
	}
	return sb.String()
}

var unsafeFilenameChars = regexp.MustCompile(`[\\/*?:"<>|]`)

// safeFilename turns a recipe title into a filesystem-safe .txt name.
func safeFilename(title string) string {
	name := unsafeFilenameChars.ReplaceAllString(title, "")
	return strings.ReplaceAll(name, " ", "_") + ".txt"
}

// titleFromURL guesses a recipe title from the URL slug, matching the
// naming produced by safeFilename for resume checks.
func titleFromURL(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	slug := strings.Trim(u.Path, "/")
	if i := strings.LastIndex(slug, "/"); i >= 0 {
		slug = slug[i+1:]
	}
	words := strings.Split(strings.ReplaceAll(slug, "-", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
