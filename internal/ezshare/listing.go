package ezshare

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Directory pages (dir?dir=A:...) wrap the listing in a <pre> block, one entry
// per line: timestamp, size, anchor. The card pads single-digit day and second
// fields with a space ("2023- 8-19  12: 5: 7"), which has to be normalized
// before the timestamp can be parsed. Photo-style pages have no <pre> block
// and are reduced to a plain anchor scan.

var (
	timestampRe = regexp.MustCompile(`\d+-\d+-\d+\s+\d+:\d+:\d+`)
	padReplacer = strings.NewReplacer("- ", "-0", ": ", ":0")
)

func parseListing(r io.Reader, base *url.URL) ([]Entry, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing page: %w", err)
	}

	pre := doc.Find("pre").First()
	if pre.Length() > 0 {
		inner, err := pre.Html()
		if err != nil {
			return nil, fmt.Errorf("failed to read listing block: %w", err)
		}
		return parsePreListing(inner, base), nil
	}

	anchors := doc.Find("a[href]")
	if anchors.Length() == 0 {
		return nil, errors.New("unrecognized listing page: no pre block and no links")
	}

	var entries []Entry
	anchors.Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if e, ok := classify(strings.TrimSpace(sel.Text()), href, 0, time.Time{}, base); ok {
			entries = append(entries, e)
		}
	})
	return entries, nil
}

func parsePreListing(inner string, base *url.URL) []Entry {
	var entries []Entry
	for _, line := range strings.Split(inner, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if e, ok := parseLine(line, base); ok {
			entries = append(entries, e)
		}
	}
	return entries
}

func parseLine(line string, base *url.URL) (Entry, bool) {
	lineDoc, err := goquery.NewDocumentFromReader(strings.NewReader(line))
	if err != nil {
		return Entry{}, false
	}
	link := lineDoc.Find("a").First()
	if link.Length() == 0 {
		return Entry{}, false
	}
	href, ok := link.Attr("href")
	if !ok {
		return Entry{}, false
	}

	prefix := line
	if i := strings.Index(line, "<a"); i >= 0 {
		prefix = line[:i]
	}
	prefix = padReplacer.Replace(prefix)

	var modified time.Time
	if m := timestampRe.FindString(prefix); m != "" {
		normalized := strings.Join(strings.Fields(m), " ")
		if t, err := time.ParseInLocation("2006-1-2 15:4:5", normalized, time.Local); err == nil {
			modified = t
		}
	}

	var size int64
	if fields := strings.Fields(prefix); len(fields) > 0 {
		if n, err := strconv.ParseInt(fields[len(fields)-1], 10, 64); err == nil && n >= 0 {
			size = n
		}
	}

	return classify(strings.TrimSpace(link.Text()), href, size, modified, base)
}

func classify(name, href string, size int64, modified time.Time, base *url.URL) (Entry, bool) {
	if name == "" || name == "." || name == ".." {
		return Entry{}, false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return Entry{}, false
	}
	abs := base.ResolveReference(ref).String()

	switch {
	case strings.Contains(href, "download?file"):
		return Entry{Name: name, Size: size, Modified: modified, URL: abs}, true
	case strings.Contains(href, "dir?dir"):
		return Entry{Name: name, IsDir: true, Modified: modified, URL: abs}, true
	default:
		return Entry{}, false
	}
}
