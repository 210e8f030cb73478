package document

import (
	"regexp"
	"strings"
)

// HeadingPattern matches a chapter heading line such as "第十二章 归来" or
// "第3回". Lines are trimmed before matching.
const HeadingPattern = `^第[零一二三四五六七八九十百千0-9]+[章节回].*`

var headingRegex = regexp.MustCompile(HeadingPattern)

// RootLabel is the label of the navigation tree root.
const RootLabel = "章节列表"

// Chapter is a heading line and the line it starts on.
type Chapter struct {
	Title     string
	StartLine int
}

func (c Chapter) String() string { return c.Title }

// IsHeading reports whether line, once trimmed, is a chapter heading.
// Trimming covers Unicode white space, so full-width indentation (U+3000)
// does not hide a heading.
func IsHeading(line string) bool {
	return headingRegex.MatchString(strings.TrimSpace(line))
}

// IndexChapters scans lines once and returns a Chapter for every heading, in
// line order. No match yields nil.
func IndexChapters(lines []string) []Chapter {
	var chapters []Chapter
	for i, line := range lines {
		if IsHeading(line) {
			chapters = append(chapters, Chapter{Title: strings.TrimSpace(line), StartLine: i})
		}
	}
	return chapters
}

// NodeKind tags the variant held by a Node.
type NodeKind int

const (
	LabelNode NodeKind = iota
	ChapterNode
)

// Node is an entry of the navigation tree: either a plain label or a
// reference to a chapter.
type Node struct {
	Kind     NodeKind
	Label    string
	Chapter  Chapter
	Children []Node
}

// Text returns what a tree widget should display for the node.
func (n Node) Text() string {
	if n.Kind == ChapterNode {
		return n.Chapter.Title
	}
	return n.Label
}

// BuildTree returns a labelled root whose children reference each chapter.
func BuildTree(chapters []Chapter) Node {
	root := Node{Kind: LabelNode, Label: RootLabel}
	for _, c := range chapters {
		root.Children = append(root.Children, Node{Kind: ChapterNode, Chapter: c})
	}
	return root
}
