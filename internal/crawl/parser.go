package crawl

import (
	"errors"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// PageTags are the on-page elements an audit export records.
type PageTags struct {
	Title           string
	MetaDescription string
	MetaRobots      string
	Canonical       string
	H1              string
}

// ParseTags tokenizes body once and keeps the first occurrence of each tag.
// A relative canonical href is resolved against base.
func ParseTags(body io.Reader, base *url.URL) (PageTags, error) {
	var tags PageTags
	var inTitle, inH1, seenTitle, seenH1 bool
	var h1 strings.Builder

	z := html.NewTokenizer(body)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				tags.H1 = strings.Join(strings.Fields(h1.String()), " ")
				return tags, nil
			}
			return PageTags{}, z.Err()

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			switch string(name) {
			case "title":
				inTitle = !seenTitle
			case "h1":
				inH1 = !seenH1
			case "meta":
				if hasAttr {
					readMeta(z, &tags)
				}
			case "link":
				if hasAttr && tags.Canonical == "" {
					tags.Canonical = readCanonical(z, base)
				}
			}

		case html.TextToken:
			switch {
			case inTitle:
				tags.Title = strings.TrimSpace(string(z.Text()))
				inTitle, seenTitle = false, true
			case inH1:
				h1.Write(z.Text())
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "title":
				inTitle = false
			case "h1":
				if inH1 {
					inH1, seenH1 = false, true
				}
			}
		}
	}
}

func attrs(z *html.Tokenizer) map[string]string {
	out := make(map[string]string)
	for {
		key, val, more := z.TagAttr()
		out[strings.ToLower(string(key))] = string(val)
		if !more {
			return out
		}
	}
}

func readMeta(z *html.Tokenizer, tags *PageTags) {
	a := attrs(z)
	content := strings.TrimSpace(a["content"])
	switch strings.ToLower(a["name"]) {
	case "description":
		if tags.MetaDescription == "" {
			tags.MetaDescription = content
		}
	case "robots":
		if tags.MetaRobots == "" {
			tags.MetaRobots = content
		}
	}
}

func readCanonical(z *html.Tokenizer, base *url.URL) string {
	a := attrs(z)
	if !strings.EqualFold(a["rel"], "canonical") || a["href"] == "" {
		return ""
	}
	ref, err := url.Parse(strings.TrimSpace(a["href"]))
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
