package nanny

import (
	"fmt"
	"time"

	"github.com/goliatone/go-nanny/expression"
)

// Calculation derives fields from the record. It runs after every update
// whose changed keys intersect DependsOn, or after every update when
// DependsOn is empty. Returned fields are merged into the record and count
// as changed for later calculations and effects.
type Calculation struct {
	Name      string
	DependsOn []string
	Compute   func(State) (map[string]any, error)
}

// Effect is a side effect run after calculations when the update changed
// any of Fields, or after every update when Fields is empty.
type Effect struct {
	Name   string
	Fields []string
	Run    func(State) error
}

type exprDecl struct {
	field     string
	expr      string
	dependsOn []string
}

// changeSet tracks which record keys an update touched.
type changeSet struct {
	all  bool
	keys map[string]struct{}
}

func newChangeSet() *changeSet {
	return &changeSet{keys: map[string]struct{}{}}
}

func (c *changeSet) add(keys ...string) {
	for _, k := range keys {
		c.keys[k] = struct{}{}
	}
}

func (c *changeSet) record(res MergeResult) {
	if res.Replaced {
		c.all = true
	}
	c.add(res.Changed...)
}

func (c *changeSet) triggers(fields []string) bool {
	if len(fields) == 0 || c.all {
		return true
	}
	for _, f := range fields {
		if _, ok := c.keys[f]; ok {
			return true
		}
	}
	return false
}

func (c *changeSet) list() []string {
	out := make([]string, 0, len(c.keys))
	for k := range c.keys {
		out = append(out, k)
	}
	return out
}

// compileExpressions turns WithExpression registrations into calculations.
func (cfg *config) compileExpressions() error {
	if len(cfg.expressions) == 0 {
		return nil
	}
	engine := cfg.engine
	if engine == nil {
		engine = expression.NewExpr(expression.WithCache(cfg.exprCache), expression.WithFuncs(cfg.funcs))
	}
	for _, e := range cfg.expressions {
		if e.field == "" {
			return fmt.Errorf("nanny: expression %q has no target field", e.expr)
		}
		program, err := engine.Compile(e.expr)
		if err != nil {
			return fmt.Errorf("nanny: expression for %q: %w", e.field, err)
		}
		field := e.field
		cfg.calculations = append(cfg.calculations, Calculation{
			Name:      field,
			DependsOn: e.dependsOn,
			Compute: func(s State) (map[string]any, error) {
				start := time.Now()
				value, err := program.Run(expression.Env{Fields: s.Fields(), Now: start})
				cfg.logger.Debug("nanny: expression evaluated",
					"field", field,
					"engine", engine.Name(),
					"duration", time.Since(start),
					"error", err,
				)
				if err != nil {
					return nil, err
				}
				return map[string]any{field: value}, nil
			},
		})
	}
	cfg.expressions = nil
	return nil
}

// derive runs calculations then effects against next.
func (n *Nanny) derive(next State, changed *changeSet) (State, error) {
	for _, calc := range n.cfg.calculations {
		if calc.Compute == nil || !next.IsRecord() || !changed.triggers(calc.DependsOn) {
			continue
		}
		out, err := calc.Compute(next.Clone())
		if err != nil {
			return State{}, stageError(StageCalculation, calc.Name, err)
		}
		if len(out) == 0 {
			continue
		}
		var res MergeResult
		next, res = next.Merge(Record(out))
		changed.add(res.Changed...)
	}
	for _, effect := range n.cfg.effects {
		if effect.Run == nil || !changed.triggers(effect.Fields) {
			continue
		}
		if err := effect.Run(next.Clone()); err != nil {
			return State{}, stageError(StageEffect, effect.Name, err)
		}
	}
	return next, nil
}

// AddCalculation registers calc at runtime. A calculation whose non-empty
// Name is already registered is ignored.
func (n *Nanny) AddCalculation(calc Calculation) bool {
	if calc.Name != "" {
		for _, existing := range n.cfg.calculations {
			if existing.Name == calc.Name {
				return false
			}
		}
	}
	n.cfg.calculations = append(n.cfg.calculations, calc)
	return true
}

// AddEffect registers effect at runtime, ignoring duplicate names.
func (n *Nanny) AddEffect(effect Effect) bool {
	if effect.Name != "" {
		for _, existing := range n.cfg.effects {
			if existing.Name == effect.Name {
				return false
			}
		}
	}
	n.cfg.effects = append(n.cfg.effects, effect)
	return true
}
