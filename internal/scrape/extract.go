// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package scrape

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// ExtractLinks 解析 HTML，返回 href 含 contains 的链接（按链接去重，最多 limit 条）。
// 相对链接按 base 解析；无文本的链接跳过。
func ExtractLinks(r io.Reader, base, contains string, limit int) ([]Item, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	baseURL, _ := url.Parse(base)

	items := make([]Item, 0)
	seen := make(map[string]struct{})
	var walk func(n *html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "a" {
			if item, ok := anchorItem(n, baseURL, contains); ok {
				if _, dup := seen[item.Link]; !dup {
					seen[item.Link] = struct{}{}
					items = append(items, item)
					if limit > 0 && len(items) >= limit {
						return false
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if !walk(c) {
				return false
			}
		}
		return true
	}
	walk(doc)
	return items, nil
}

func anchorItem(n *html.Node, base *url.URL, contains string) (Item, bool) {
	var href string
	for _, a := range n.Attr {
		if a.Key == "href" {
			href = strings.TrimSpace(a.Val)
			break
		}
	}
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return Item{}, false
	}
	if contains != "" && !strings.Contains(href, contains) {
		return Item{}, false
	}
	title := strings.Join(strings.Fields(nodeText(n)), " ")
	if title == "" {
		return Item{}, false
	}
	link := href
	if base != nil {
		if u, err := base.Parse(href); err == nil {
			link = u.String()
		}
	}
	return Item{Title: title, Link: link}, true
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return sb.String()
}
