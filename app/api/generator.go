package api

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/lysyi3m/rss-lens/app/database"
)

// Generator renders classified records of one topic as an RSS 2.0 feed.
type Generator struct {
	baseURL string
	version string
}

func NewGenerator(baseURL, version string) *Generator {
	return &Generator{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		version: version,
	}
}

func (g *Generator) Run(topic string, items []database.ClassifiedRecord) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	selfLink := fmt.Sprintf("%s/topics/%s/rss", g.baseURL, topic)

	g.writeElement(&buf, "title", fmt.Sprintf("rss-lens: %s", topic), 4)
	g.writeElement(&buf, "link", selfLink, 4)
	g.writeElement(&buf, "description", fmt.Sprintf("News classified under the topic '%s'", topic), 4)
	buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
		html.EscapeString(selfLink)))

	lastBuildDate := time.Now().In(time.Local)
	if len(items) > 0 {
		lastBuildDate = items[0].ClassifiedAt.In(time.Local)
	}
	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("rss-lens/%s", g.version), 4)

	for _, item := range items {
		g.writeItem(&buf, item)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, item database.ClassifiedRecord) {
	record := item.Record

	buf.WriteString("    <item>\n")

	buf.WriteString("      <guid isPermaLink=\"false\">")
	xml.EscapeText(buf, []byte(item.ContentHash))
	buf.WriteString("</guid>\n")

	g.writeElement(buf, "title", value(record.Title), 6)
	g.writeElement(buf, "link", value(record.Link), 6)

	description := value(record.Summary)
	if description == "" {
		description = "No description available"
	}
	g.writeElement(buf, "description", description, 6)

	if content := value(record.Content); content != "" && content != description {
		buf.WriteString("      <content:encoded><![CDATA[")
		buf.WriteString(strings.ReplaceAll(content, "]]>", "]]]]><![CDATA[>"))
		buf.WriteString("]]></content:encoded>\n")
	}

	pubDate := value(record.Published)
	if pubDate == "" {
		pubDate = item.ClassifiedAt.In(time.Local).Format(time.RFC1123Z)
	}
	g.writeElement(buf, "pubDate", pubDate, 6)
	g.writeElement(buf, "author", value(record.Authors), 6)

	g.writeElement(buf, "category", record.Outlet, 6)
	if item.Individuals != "" && item.Individuals != "none" {
		g.writeElement(buf, "category", item.Individuals, 6)
	}
	g.writeElement(buf, "category", item.Sentiment, 6)

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
