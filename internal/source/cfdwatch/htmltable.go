package cfdwatch

import (
	"strings"

	"golang.org/x/net/html"
)

// ParseFirstHTMLTable 解析文档中第一个<table>：
// 首行（th或td）作为列名，其余行转为列名→单元格文本的map。
// 单元格数与表头不齐时按较短者截断。
func ParseFirstHTMLTable(doc string) ([]map[string]string, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return nil, err
	}

	table := findFirst(root, "table")
	if table == nil {
		return nil, nil
	}

	var headers []string
	var rows []map[string]string
	for _, tr := range findAll(table, "tr") {
		cells := cellTexts(tr)
		if len(cells) == 0 {
			continue
		}
		if headers == nil {
			headers = cells
			continue
		}
		row := make(map[string]string, len(headers))
		for i, h := range headers {
			if i >= len(cells) {
				break
			}
			row[h] = cells[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// cellTexts 行内每个th/td的纯文本
func cellTexts(tr *html.Node) []string {
	var cells []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.Data == "th" || c.Data == "td") {
			cells = append(cells, strings.TrimSpace(nodeText(c)))
		}
	}
	return cells
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func findFirst(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func findAll(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			out = append(out, n)
			return // 不进入嵌套同名标签
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	return out
}
