package types

type CompareOp string

const (
	CompareEq     CompareOp = "eq"
	CompareGte    CompareOp = "gte"
	CompareLte    CompareOp = "lte"
	CompareExists CompareOp = "exists"
)

type FieldCondition struct {
	Field string
	Op    CompareOp
	Value any
}

// Predicate is a typed search filter. Fields holds comparisons in
// declaration order, which is also the order access checks run in.
type Predicate struct {
	Fields  []FieldCondition
	AnyTags []string
	AllTags []string
}

func (p Predicate) FieldNames() []string {
	out := make([]string, 0, len(p.Fields))
	for _, cond := range p.Fields {
		out = append(out, cond.Field)
	}
	return out
}

func (p Predicate) Matches(c Contact) bool {
	for _, cond := range p.Fields {
		if !cond.matches(c) {
			return false
		}
	}
	if len(p.AnyTags) > 0 {
		found := false
		for _, tag := range p.AnyTags {
			if c.HasTag(tag) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, tag := range p.AllTags {
		if !c.HasTag(tag) {
			return false
		}
	}
	return true
}

func (cond FieldCondition) matches(c Contact) bool {
	value, present := c.Fields[cond.Field]
	switch cond.Op {
	case CompareExists:
		want, ok := cond.Value.(bool)
		if !ok {
			return false
		}
		return present == want
	case CompareEq:
		if !present {
			return false
		}
		return looseEqual(value, cond.Value)
	case CompareGte:
		if !present {
			return false
		}
		got, okGot := toFloat(value)
		want, okWant := toFloat(cond.Value)
		return okGot && okWant && got >= want
	case CompareLte:
		if !present {
			return false
		}
		got, okGot := toFloat(value)
		want, okWant := toFloat(cond.Value)
		return okGot && okWant && got <= want
	default:
		return false
	}
}

// looseEqual compares scalars across the numeric representations JSON
// and YAML decoding produce (int vs float64 for the same value).
func looseEqual(a, b any) bool {
	fa, okA := toFloat(a)
	fb, okB := toFloat(b)
	if okA && okB {
		return fa == fb
	}
	switch va := a.(type) {
	case string:
		vb, ok := b.(string)
		return ok && va == vb
	case bool:
		vb, ok := b.(bool)
		return ok && va == vb
	default:
		return false
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

type TagUpdate struct {
	Add    []string
	Remove []string
}

func (u TagUpdate) Empty() bool {
	return len(u.Add) == 0 && len(u.Remove) == 0
}
