package feed

import (
	"bytes"
	"fmt"

	"github.com/mmcdole/gofeed"
)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Run parses raw feed content into normalized entries, preserving the feed's
// own order.
func (p *Parser) Run(data []byte) ([]Entry, error) {
	parsed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	entries := make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		entries = append(entries, p.normalizeItem(item))
	}

	return entries, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item) Entry {
	entry := Entry{
		GUID:        item.GUID,
		Title:       item.Title,
		Link:        item.Link,
		Description: item.Description,
	}

	if entry.Description == "" {
		entry.Description = item.Content
	}

	if item.PublishedParsed != nil {
		entry.Published = item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		entry.Published = item.UpdatedParsed
	}

	if item.Categories != nil {
		entry.Categories = item.Categories
	}

	for _, enclosure := range item.Enclosures {
		if enclosure == nil {
			continue
		}
		entry.Enclosures = append(entry.Enclosures, Enclosure{
			URL:  enclosure.URL,
			Type: enclosure.Type,
		})
	}

	entry.VideoID = extensionValue(item, "yt", "videoId")
	entry.MediaTypes = mediaContentTypes(item)

	return entry
}

func extensionValue(item *gofeed.Item, namespace, name string) string {
	exts, ok := item.Extensions[namespace]
	if !ok {
		return ""
	}
	for _, ext := range exts[name] {
		if ext.Value != "" {
			return ext.Value
		}
	}
	return ""
}

// mediaContentTypes collects media:content MIME types, both top-level and
// nested inside media:group as YouTube feeds emit them.
func mediaContentTypes(item *gofeed.Item) []string {
	exts, ok := item.Extensions["media"]
	if !ok {
		return nil
	}
	var types []string
	for _, ext := range exts["content"] {
		if mediaType := ext.Attrs["type"]; mediaType != "" {
			types = append(types, mediaType)
		}
	}
	for _, group := range exts["group"] {
		for _, ext := range group.Children["content"] {
			if mediaType := ext.Attrs["type"]; mediaType != "" {
				types = append(types, mediaType)
			}
		}
	}
	return types
}
