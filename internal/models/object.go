package models

import "time"

const (
	ObjectTypeComment = "comment"
	ObjectTypePost    = "post"
)

// Object types that never carry rubrics.
var ExcludedObjectTypes = []string{"attachment", "rubric"}

type ObjectType struct {
	Slug  string
	Label string
}

// SelectableObjectTypes drops excluded types and appends the comment pseudo-type.
func SelectableObjectTypes(types []ObjectType) []ObjectType {
	res := make([]ObjectType, 0, len(types)+1)
	for _, t := range types {
		if contains(ExcludedObjectTypes, t.Slug) || t.Slug == ObjectTypeComment {
			continue
		}
		res = append(res, t)
	}
	return append(res, ObjectType{Slug: ObjectTypeComment, Label: "Comment"})
}

type Category struct {
	Name string
	Slug string
}

type Object struct {
	ID           int
	Type         string
	Title        string
	Excerpt      string
	Author       string
	Published    time.Time
	CommentCount int
	Categories   []Category
}

// MetaFilter keeps objects whose numeric meta value under Key is at least Min.
type MetaFilter struct {
	Key string
	Min float64
}

type ObjectQuery struct {
	Type   string
	Filter *MetaFilter
}
