package gutenberg

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var digitsPattern = regexp.MustCompile(`\d+`)

// Metadata is what the catalog page exposes about a book. Fields the page
// lacks stay empty.
type Metadata struct {
	Title         string
	Author        string
	Language      string
	DownloadCount int
}

// ParseMetadata extracts title, author, language and download count from an
// /ebooks/{id} catalog page.
func ParseMetadata(r io.Reader) (Metadata, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Metadata{}, fmt.Errorf("parse catalog page: %w", err)
	}

	var meta Metadata
	meta.Title = strings.TrimSpace(doc.Find("h1").First().Text())
	meta.Author = strings.TrimSpace(doc.Find(`a[itemprop="creator"]`).First().Text())

	doc.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if !strings.Contains(row.Find("th").Text(), "Language") {
			return true
		}
		meta.Language = strings.TrimSpace(row.Find("td").First().Text())
		return false
	})

	downloads := doc.Find(`td[itemprop="interactionCount"]`).First().Text()
	downloads = strings.ReplaceAll(downloads, ",", "")
	if m := digitsPattern.FindString(downloads); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			meta.DownloadCount = n
		}
	}
	return meta, nil
}
