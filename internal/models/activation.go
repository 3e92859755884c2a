package models

// ActivationConfig maps a rubric name to the object type slugs it is enabled for.
type ActivationConfig map[string][]string

func (c ActivationConfig) Enabled(rubricName string, objectType string) bool {
	if c == nil {
		return false
	}
	types, ok := c[rubricName]
	if !ok {
		return false
	}
	return contains(types, objectType)
}

// Override replaces the global activation decision for a single object.
// Objects carry two of them: one for the object, one for its comments.
type Override struct {
	Overridden     bool
	EnabledRubrics []string
}

func (o Override) Enabled(rubricName string) bool {
	return contains(o.EnabledRubrics, rubricName)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
