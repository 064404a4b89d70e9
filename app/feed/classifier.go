package feed

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/rss-inbox/app/config"
)

// Classifier decides whether an entry is webpage or video content. It is
// pure and stateless given its domain/keyword configuration. Rules only
// escalate webpage to video, never the reverse.
type Classifier struct {
	videoDomains  []string
	videoKeywords []string
}

func NewClassifier(cfg config.ClassificationConfig) *Classifier {
	keywords := make([]string, 0, len(cfg.VideoKeywords))
	for _, keyword := range cfg.VideoKeywords {
		keywords = append(keywords, strings.ToLower(keyword))
	}
	return &Classifier{
		videoDomains:  cfg.VideoDomains,
		videoKeywords: keywords,
	}
}

// Run classifies one entry, seeded with the feed's configured handler.
func (c *Classifier) Run(entry *Entry, feedHandler string) string {
	classification := ClassWebpage
	if feedHandler == ClassVideo {
		classification = ClassVideo
	}

	if domain := extractDomain(entry.Link); domain != "" {
		for _, videoDomain := range c.videoDomains {
			if strings.Contains(domain, videoDomain) {
				slog.Debug("Classified as video based on domain", "domain", domain)
				classification = ClassVideo
				break
			}
		}
	}

	if c.containsVideoKeyword(textContent(entry)) {
		slog.Debug("Classified as video based on keywords", "title", entry.Title)
		classification = ClassVideo
	}

	if hasVideoMarker(entry) {
		slog.Debug("Classified as video based on media markers", "title", entry.Title)
		classification = ClassVideo
	}

	return classification
}

func (c *Classifier) containsVideoKeyword(text string) bool {
	for _, keyword := range c.videoKeywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

func extractDomain(link string) string {
	if link == "" {
		return ""
	}
	parsed, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}

// textContent combines title, tag-stripped description and category terms,
// lowercased, for keyword matching.
func textContent(entry *Entry) string {
	parts := make([]string, 0, 3)
	if entry.Title != "" {
		parts = append(parts, entry.Title)
	}
	if entry.Description != "" {
		parts = append(parts, stripHTML(entry.Description))
	}
	if len(entry.Categories) > 0 {
		parts = append(parts, strings.Join(entry.Categories, " "))
	}
	return strings.ToLower(strings.Join(parts, " "))
}

func stripHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	return doc.Text()
}

func hasVideoMarker(entry *Entry) bool {
	if entry.VideoID != "" {
		return true
	}
	if strings.Contains(strings.ToLower(entry.Link), "youtube") {
		return true
	}
	for _, enclosure := range entry.Enclosures {
		if strings.HasPrefix(enclosure.Type, "video/") {
			return true
		}
	}
	for _, mediaType := range entry.MediaTypes {
		if strings.HasPrefix(mediaType, "video/") {
			return true
		}
	}
	return false
}
