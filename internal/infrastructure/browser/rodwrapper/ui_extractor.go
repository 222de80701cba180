package rodwrapper

import (
	"fmt"
	"strings"

	"webpilot/internal/domain/entity"

	"github.com/go-rod/rod"
)

type IndexConfig struct {
	MaxElements int
	OnlyVisible bool
}

var DefaultIndexConfig = IndexConfig{
	MaxElements: 150,
	OnlyVisible: true,
}

// cssPathJS computes a selector that survives until the page changes:
// nearest id if there is one, otherwise an nth-of-type chain up to it.
const cssPathJS = `() => {
	const path = [];
	let node = this;
	while (node && node.nodeType === Node.ELEMENT_NODE) {
		if (node.id) {
			path.unshift('#' + CSS.escape(node.id));
			break;
		}
		let sel = node.localName;
		const parent = node.parentElement;
		if (parent) {
			const siblings = Array.from(parent.children).filter(c => c.localName === node.localName);
			if (siblings.length > 1) {
				sel += ':nth-of-type(' + (siblings.indexOf(node) + 1) + ')';
			}
		}
		path.unshift(sel);
		node = parent;
	}
	return path.join(' > ');
}`

// BuildElementIndex walks the page's interactive elements in a fixed group
// order and assigns stable "e<N>" refs, so the same page yields the same
// index on repeated captures.
func BuildElementIndex(page *rod.Page, cfg *IndexConfig) ([]entity.PageElement, error) {
	if cfg == nil {
		cfg = &DefaultIndexConfig
	}

	groups := []struct {
		query string
		role  string
	}{
		{"a[href]", "link"},
		{"button, [role='button'], [onclick]", "button"},
		{"input, textarea, select", "input"},
	}

	var result []entity.PageElement
	seen := make(map[string]bool)
	counter := 0

	add := func(el *rod.Element, role string) {
		if el == nil || counter >= cfg.MaxElements {
			return
		}

		if cfg.OnlyVisible {
			visible, err := el.Visible()
			if err != nil || !visible {
				return
			}
		}

		res, err := el.Eval(cssPathJS)
		if err != nil {
			return
		}
		selector := res.Value.Str()
		if selector == "" || seen[selector] {
			return
		}
		seen[selector] = true

		text, _ := el.Text()
		text = strings.TrimSpace(text)
		if text == "" {
			if aria, _ := el.Attribute("aria-label"); aria != nil {
				text = strings.TrimSpace(*aria)
			}
		}
		if text == "" {
			if placeholder, _ := el.Attribute("placeholder"); placeholder != nil {
				text = strings.TrimSpace(*placeholder)
			}
		}

		if attrRole, _ := el.Attribute("role"); attrRole != nil && *attrRole != "" {
			role = *attrRole
		}

		result = append(result, entity.PageElement{
			Ref:      fmt.Sprintf("e%d", counter),
			Role:     role,
			Text:     text,
			Selector: selector,
		})
		counter++
	}

	for _, group := range groups {
		elements, err := page.Elements(group.query)
		if err != nil {
			continue
		}
		for _, el := range elements {
			add(el, group.role)
		}
	}

	return result, nil
}
