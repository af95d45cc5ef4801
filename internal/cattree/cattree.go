package cattree

import (
	"fmt"
	"sort"
	"strings"
)

// ContentRecord is one source document located within a category.
type ContentRecord struct {
	PathStem string // Slash-separated path without extension, e.g. "LinkedInPost/ai/intro"
	Title    string
	URL      string
	Category string
}

// Segments splits the path stem into its non-empty segments.
func (r ContentRecord) Segments() []string {
	parts := strings.Split(r.PathStem, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// IsIndex reports whether the record is the landing page of category, given
// either as "<category>/index" or as a bare "index" stem.
func (r ContentRecord) IsIndex(category string) bool {
	segs := r.Segments()
	switch len(segs) {
	case 1:
		return segs[0] == "index"
	case 2:
		return segs[0] == category && segs[1] == "index"
	}
	return false
}

// Data is the display payload carried by leaf nodes.
type Data struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// TreeNode is one node of a category hierarchy.
type TreeNode struct {
	Name     string               `json:"name"`
	IsLeaf   bool                 `json:"isLeaf"`
	Children map[string]*TreeNode `json:"children"`
	Data     *Data                `json:"data"`
}

// Tree is the root mapping from top-level segment to node.
type Tree map[string]*TreeNode

// Result is the output of Build.
type Result struct {
	Tree  Tree   `json:"tree"`
	Posts []Data `json:"posts"`
}

// CollisionPolicy decides what happens when two records resolve to the same path.
type CollisionPolicy int

const (
	// Overwrite keeps the last record silently.
	Overwrite CollisionPolicy = iota
	// Reject fails the build with a *DuplicatePathError.
	Reject
)

func (p CollisionPolicy) String() string {
	switch p {
	case Overwrite:
		return "overwrite"
	case Reject:
		return "reject"
	}
	return fmt.Sprintf("CollisionPolicy(%d)", int(p))
}

// ParseCollisionPolicy maps a config string to a policy.
func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "overwrite":
		return Overwrite, nil
	case "reject", "error":
		return Reject, nil
	default:
		return Overwrite, fmt.Errorf("unknown collision policy: %q", s)
	}
}

// DuplicatePathError is returned under Reject when two records share a path.
type DuplicatePathError struct {
	Category string
	Path     []string
	First    Data
	Second   Data
}

func (e *DuplicatePathError) Error() string {
	return fmt.Sprintf("category %s: duplicate path %s (%s, %s)",
		e.Category, strings.Join(e.Path, "/"), e.First.URL, e.Second.URL)
}

type options struct {
	policy CollisionPolicy
}

// Option configures Build.
type Option func(*options)

// WithCollisionPolicy sets the policy for records that resolve to the same path.
func WithCollisionPolicy(p CollisionPolicy) Option {
	return func(o *options) { o.policy = p }
}

// Build groups the records of one category into a tree keyed by path segment.
// Records of other categories and the category index page are skipped.
func Build(category string, records []ContentRecord, opts ...Option) (Result, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	res := Result{Tree: Tree{}, Posts: []Data{}}

	for _, rec := range records {
		if rec.Category != category || rec.IsIndex(category) {
			continue
		}

		var segs []string
		for _, s := range rec.Segments() {
			if s != category {
				segs = append(segs, s)
			}
		}
		if len(segs) == 0 {
			continue
		}

		data := Data{Title: rec.Title, URL: rec.URL}
		level := map[string]*TreeNode(res.Tree)
		for i, seg := range segs {
			node, ok := level[seg]
			if !ok {
				node = &TreeNode{Name: seg, Children: map[string]*TreeNode{}}
				level[seg] = node
			}
			if i == len(segs)-1 {
				if node.IsLeaf && o.policy == Reject {
					return Result{}, &DuplicatePathError{
						Category: category,
						Path:     segs,
						First:    *node.Data,
						Second:   data,
					}
				}
				node.IsLeaf = true
				d := data
				node.Data = &d
			}
			level = node.Children
		}

		res.Posts = append(res.Posts, data)
	}

	return res, nil
}

// Leaf is a leaf node together with its segment path from the root.
type Leaf struct {
	Path []string
	Data Data
}

// Leaves lists every leaf of the tree sorted by path.
func Leaves(t Tree) []Leaf {
	var out []Leaf
	var walk func(level map[string]*TreeNode, prefix []string)
	walk = func(level map[string]*TreeNode, prefix []string) {
		for name, node := range level {
			path := append(append([]string(nil), prefix...), name)
			if node.IsLeaf && node.Data != nil {
				out = append(out, Leaf{Path: path, Data: *node.Data})
			}
			walk(node.Children, path)
		}
	}
	walk(t, nil)

	sort.Slice(out, func(i, j int) bool {
		return strings.Join(out[i].Path, "/") < strings.Join(out[j].Path, "/")
	})
	return out
}

// Lookup follows path from the root and returns the node, if any.
func (t Tree) Lookup(path ...string) *TreeNode {
	level := map[string]*TreeNode(t)
	var node *TreeNode
	for _, seg := range path {
		n, ok := level[seg]
		if !ok {
			return nil
		}
		node = n
		level = n.Children
	}
	return node
}
