package feed

import (
	"strings"

	"github.com/mmcdole/gofeed"
)

// EntryFromItem exposes a parsed feed item under the native field names a
// feedparser-style source offers. Empty values are left out so that they
// normalize to null.
func EntryFromItem(item *gofeed.Item) Entry {
	entry := Entry{}

	set := func(value string, names ...string) {
		if value == "" {
			return
		}
		for _, name := range names {
			entry[name] = value
		}
	}

	set(item.Title, "title")
	set(item.Link, "link")
	set(item.Description, "summary", "description")
	set(item.Published, "published")
	set(item.Updated, "updated")
	set(item.Content, "content")
	set(item.GUID, "id", "guid")
	set(extractAuthors(item), "authors")
	if item.Author != nil {
		set(strings.TrimSpace(item.Author.Name), "author")
	}
	set(extractMediaContent(item), "media_content")

	if item.Categories != nil {
		tags := make([]Tag, 0, len(item.Categories))
		for _, category := range item.Categories {
			tags = append(tags, Tag{"term": category})
		}
		entry["tags"] = tags
		entry["categories"] = tags
	}

	return entry
}

func extractAuthors(item *gofeed.Item) string {
	var names []string

	if len(item.Authors) > 0 {
		for _, author := range item.Authors {
			if author == nil {
				continue
			}
			if name := strings.TrimSpace(author.Name); name != "" {
				names = append(names, name)
			} else if email := strings.TrimSpace(author.Email); email != "" {
				names = append(names, email)
			}
		}
	} else if item.Author != nil {
		if name := strings.TrimSpace(item.Author.Name); name != "" {
			names = append(names, name)
		}
	}

	return strings.Join(names, ", ")
}

// extractMediaContent returns the first media:content URL, falling back to
// the first image enclosure.
func extractMediaContent(item *gofeed.Item) string {
	if media, ok := item.Extensions["media"]; ok {
		for _, content := range media["content"] {
			if u := content.Attrs["url"]; u != "" {
				return u
			}
		}
		for _, group := range media["group"] {
			for _, content := range group.Children["content"] {
				if u := content.Attrs["url"]; u != "" {
					return u
				}
			}
		}
	}

	for _, enclosure := range item.Enclosures {
		if enclosure != nil && strings.HasPrefix(enclosure.Type, "image/") {
			return enclosure.URL
		}
	}

	return ""
}
