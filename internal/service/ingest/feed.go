// internal/service/ingest/feed.go

package ingest

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"time"
)

// feedEntry is one normalized item from an RSS 2.0 or Atom document.
type feedEntry struct {
	Title     string
	Link      string
	Summary   string
	Published time.Time
	Tags      []string
}

type rssDocument struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Description string   `xml:"description"`
	PubDate     string   `xml:"pubDate"`
	Categories  []string `xml:"category"`
}

type atomDocument struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title      string         `xml:"title"`
	Links      []atomLink     `xml:"link"`
	Summary    string         `xml:"summary"`
	Content    string         `xml:"content"`
	Published  string         `xml:"published"`
	Updated    string         `xml:"updated"`
	Categories []atomCategory `xml:"category"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}

// parseFeed decodes an RSS 2.0 or Atom payload into normalized entries.
func parseFeed(data []byte) ([]feedEntry, error) {
	root, err := rootElement(data)
	if err != nil {
		return nil, fmt.Errorf("error reading feed document: %w", err)
	}

	switch root {
	case "rss", "RDF":
		return parseRSS(data)
	case "feed":
		return parseAtom(data)
	default:
		return nil, fmt.Errorf("unrecognized feed root element: %s", root)
	}
}

func rootElement(data []byte) (string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			return "", fmt.Errorf("no root element found")
		}
		if err != nil {
			return "", err
		}
		if start, ok := token.(xml.StartElement); ok {
			return start.Name.Local, nil
		}
	}
}

func parseRSS(data []byte) ([]feedEntry, error) {
	var doc rssDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error parsing RSS feed: %w", err)
	}

	entries := make([]feedEntry, 0, len(doc.Channel.Items))
	for _, item := range doc.Channel.Items {
		entries = append(entries, feedEntry{
			Title:     item.Title,
			Link:      item.Link,
			Summary:   item.Description,
			Published: parseFeedTime(item.PubDate),
			Tags:      item.Categories,
		})
	}

	return entries, nil
}

func parseAtom(data []byte) ([]feedEntry, error) {
	var doc atomDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error parsing Atom feed: %w", err)
	}

	entries := make([]feedEntry, 0, len(doc.Entries))
	for _, entry := range doc.Entries {
		summary := entry.Summary
		if summary == "" {
			summary = entry.Content
		}

		published := entry.Published
		if published == "" {
			published = entry.Updated
		}

		var tags []string
		for _, c := range entry.Categories {
			if c.Term != "" {
				tags = append(tags, c.Term)
			}
		}

		entries = append(entries, feedEntry{
			Title:     entry.Title,
			Link:      atomEntryLink(entry.Links),
			Summary:   summary,
			Published: parseFeedTime(published),
			Tags:      tags,
		})
	}

	return entries, nil
}

func atomEntryLink(links []atomLink) string {
	for _, l := range links {
		if l.Rel == "" || l.Rel == "alternate" {
			return l.Href
		}
	}
	if len(links) > 0 {
		return links[0].Href
	}
	return ""
}

var feedTimeFormats = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	time.RFC822Z,
	time.RFC822,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2006-01-02T15:04:05Z",
}

// parseFeedTime tries the date formats seen in the wild; feeds with
// unparseable dates fall back to the zero time and are stamped at save.
func parseFeedTime(value string) time.Time {
	for _, format := range feedTimeFormats {
		if t, err := time.Parse(format, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
