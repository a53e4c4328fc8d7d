package services

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/act-community/steward/modules/contacts/domain/types"
)

var newReviewCELEnv = func() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("id", cel.StringType),
		cel.Variable("tags", cel.ListType(cel.StringType)),
		cel.Variable("fields", cel.MapType(cel.StringType, cel.DynType)),
	)
}

var newReviewCELProgram = func(env *cel.Env, ast *cel.Ast) (cel.Program, error) {
	return env.Program(ast)
}

var reviewProgramCache sync.Map

type compiledCustomRule struct {
	name              string
	program           cel.Program
	reason            string
	recommendedAction string
	blockedActions    []types.ActionKind
}

// Classifier flags records that need human sign-off before automation
// touches them. It is pure configuration after construction: no clock,
// no randomness, no I/O, so repeated calls on the same record yield
// identical flags.
type Classifier struct {
	elderTag       string
	elderKeyword   string
	reviewField    string
	culturalPrefix string
	criticalFields []string
	customRules    []compiledCustomRule
}

func NewClassifier(cfg ReviewConfig) (*Classifier, error) {
	c := &Classifier{
		elderTag:       strings.TrimSpace(cfg.ElderTag),
		elderKeyword:   strings.ToLower(strings.TrimSpace(cfg.ElderKeyword)),
		reviewField:    strings.TrimSpace(cfg.ReviewField),
		culturalPrefix: cfg.CulturalPrefix,
		criticalFields: append([]string(nil), cfg.CriticalFields...),
	}
	for _, rule := range cfg.CustomRules {
		name := strings.TrimSpace(rule.Name)
		if name == "" {
			return nil, errors.New("review config: custom rule name required")
		}
		program, err := loadOrCompileReviewProgram(rule.Expr)
		if err != nil {
			return nil, fmt.Errorf("review config: rule %q: %w", name, err)
		}
		blocked, err := parseActionKinds(rule.BlockedActions)
		if err != nil {
			return nil, fmt.Errorf("review config: rule %q: %w", name, err)
		}
		c.customRules = append(c.customRules, compiledCustomRule{
			name:              name,
			program:           program,
			reason:            rule.Reason,
			recommendedAction: rule.RecommendedAction,
			blockedActions:    blocked,
		})
	}
	return c, nil
}

// Classify evaluates the review rules against a record. Evaluation
// order is fixed and must not be changed:
//  1. elder role tag
//  2. review-required field
//  3. cultural namespace tags
//  4. critical field present (full block)
//  5. custom rules, in configured order
//
// Reason and recommended action are last-match-wins; blocked actions
// accumulate across every matched rule.
func (c *Classifier) Classify(contact types.Contact) types.ReviewFlag {
	flag := types.ReviewFlag{BlockedActions: []types.ActionKind{}}
	var blocked []types.ActionKind

	if c.matchesElderTag(contact) {
		flag.RequiresReview = true
		flag.Reason = "Contact is tagged as Elder - cultural protocols apply"
		flag.RecommendedAction = "Flag for human review before any communication"
		blocked = append(blocked, types.ActionAutomatedEmail, types.ActionAutomatedOutreach, types.ActionAIGeneratedContent)
	}

	if c.reviewField != "" && contact.FieldTruthy(c.reviewField) {
		flag.RequiresReview = true
		flag.Reason = fmt.Sprintf("Contact has %s flag set", c.reviewField)
		flag.RecommendedAction = "Human approval required before any action"
		blocked = append(blocked, types.ActionAutomatedEmail, types.ActionAutomatedOutreach, types.ActionAIGeneratedContent)
	}

	if c.culturalPrefix != "" {
		if culturalTags := contact.HasTagPrefix(c.culturalPrefix); len(culturalTags) > 0 {
			flag.RequiresReview = true
			flag.Reason = "Contact has cultural tags: " + strings.Join(culturalTags, ", ")
			flag.RecommendedAction = "Review cultural context before communication"
			blocked = append(blocked, types.ActionBulkOperations)
		}
	}

	for _, field := range c.criticalFields {
		if _, present := contact.Fields[field]; present {
			flag.RequiresReview = true
			flag.Reason = "CRITICAL: Sacred knowledge detected - FULL BLOCK"
			flag.RecommendedAction = "IMMEDIATELY escalate to ACT Cultural Advisor"
			blocked = append(blocked, types.AllActionKinds()...)
			break
		}
	}

	for _, rule := range c.customRules {
		matched, err := evalReviewRule(rule.program, contact)
		if err != nil || !matched {
			continue
		}
		flag.RequiresReview = true
		if rule.reason != "" {
			flag.Reason = rule.reason
		}
		if rule.recommendedAction != "" {
			flag.RecommendedAction = rule.recommendedAction
		}
		blocked = append(blocked, rule.blockedActions...)
	}

	if len(blocked) > 0 {
		flag.BlockedActions = types.SortActionKinds(blocked)
	}
	return flag
}

func (c *Classifier) matchesElderTag(contact types.Contact) bool {
	if c.elderTag != "" && contact.HasTag(c.elderTag) {
		return true
	}
	if c.elderKeyword == "" {
		return false
	}
	for _, tag := range contact.Tags {
		if strings.Contains(strings.ToLower(tag), c.elderKeyword) {
			return true
		}
	}
	return false
}

func evalReviewRule(program cel.Program, contact types.Contact) (bool, error) {
	fields := contact.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	tags := contact.Tags
	if tags == nil {
		tags = []string{}
	}
	out, _, err := program.Eval(map[string]any{
		"id":     contact.ID,
		"tags":   tags,
		"fields": fields,
	})
	if err != nil {
		return false, err
	}
	v, ok := out.Value().(bool)
	if !ok {
		return false, errors.New("rule output is not a bool")
	}
	return v, nil
}

func loadOrCompileReviewProgram(expr string) (cel.Program, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, errors.New("expression required")
	}
	if cached, ok := reviewProgramCache.Load(expr); ok {
		return cached.(cel.Program), nil
	}
	env, err := newReviewCELEnv()
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	if ast.OutputType() != cel.BoolType {
		return nil, errors.New("expression output type mismatch")
	}
	program, err := newReviewCELProgram(env, ast)
	if err != nil {
		return nil, err
	}
	reviewProgramCache.Store(expr, program)
	return program, nil
}
