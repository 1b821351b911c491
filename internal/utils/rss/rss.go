// Package rss renders the public RSS 2.0 feed of the blog.
package rss

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/mahmoudev/blog-service/internal/models"
)

// MaxItems caps how many posts a single feed document carries.
const MaxItems = 20

// Build renders an RSS 2.0 document for the given posts. Posts are expected
// newest first; the order is preserved.
func Build(title, siteURL, description string, posts []models.Post) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	rss := doc.CreateElement("rss")
	rss.CreateAttr("version", "2.0")

	channel := rss.CreateElement("channel")
	channel.CreateElement("title").SetText(title)
	channel.CreateElement("link").SetText(siteURL)
	channel.CreateElement("description").SetText(description)

	for _, post := range posts {
		item := channel.CreateElement("item")
		item.CreateElement("title").SetText(post.Title)
		item.CreateElement("link").SetText(fmt.Sprintf("%s/feed/posts/%s", siteURL, post.ID))
		item.CreateElement("description").SetText(post.Content)
		item.CreateElement("author").SetText(post.Creator.Name)
		item.CreateElement("pubDate").SetText(post.CreatedAt.Format("Mon, 02 Jan 2006 15:04:05 -0700"))
		guid := item.CreateElement("guid")
		guid.CreateAttr("isPermaLink", "false")
		guid.SetText(post.ID)
	}

	doc.Indent(2)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render rss feed: %w", err)
	}
	return out, nil
}
