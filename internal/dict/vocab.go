package dict

import "github.com/rcliao/utcp/internal/meta"

// domainTerms are the fixed keyword vocabularies, in tie-break order.
var domainTerms = map[string][]string{
	meta.DomainCode: {
		"function", "class", "interface", "const", "let", "var", "return",
		"import", "export", "extends", "implements", "public", "private",
		"protected", "static", "async", "await", "try", "catch", "throw",
		"break", "continue", "do", "else", "for", "if", "in", "new",
		"this", "void", "while", "with", "case", "switch", "typeof",
		"get", "set", "null", "true", "false", "instanceof", "package",
		"yield", "constructor", "super", "debugger", "default", "finally",
	},
	meta.DomainMarkup: {
		"header", "paragraph", "div", "span", "section", "article", "nav",
		"footer", "main", "aside", "table", "title", "body", "head",
		"script", "style", "link", "meta", "form", "input", "button", "label",
		"select", "option", "textarea", "canvas", "audio", "video", "source",
		"track", "menu", "menuitem", "dialog", "summary", "details",
	},
	meta.DomainStyle: {
		"color", "background", "padding", "margin", "border", "font", "text",
		"align", "display", "position", "width", "height", "top", "left",
		"bottom", "right", "float", "clear", "opacity", "overflow", "clip",
		"visibility", "transform", "transition", "animation", "grid", "flex",
	},
}
