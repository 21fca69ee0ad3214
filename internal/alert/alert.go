// Package alert evaluates expression rules against every inference report.
// Package alert 针对每个推理报告求值表达式规则。
package alert

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/livp123/firesense/internal/config"
	"github.com/livp123/firesense/internal/metrics"
	"github.com/livp123/firesense/internal/report"
	"github.com/livp123/firesense/internal/utils/logger"
	fserrors "github.com/livp123/firesense/pkg/errors"
)

// Rule is a compiled alert rule.
type Rule struct {
	Name    string
	Source  string
	Program *vm.Program
	Action  string
}

// Env is the environment a rule expression runs against.
// Env 是规则表达式的执行环境。
type Env struct {
	Label             string
	Fire              bool
	Decision          string
	Probability       float64
	NoFireProbability float64
	Confidence        float64
	Temperature       float64
	Humidity          float64
	CO2               float64
	Hydrogen          float64
	Pressure          float64
	Saturated         int
	Clamped           bool
	Failed            bool

	z *report.Readings
}

// Between reports whether lo <= v <= hi.
func (e *Env) Between(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}

// Z returns the standardized value of a named feature.
// Z 返回指定特征的标准化值。
func (e *Env) Z(feature string) float64 {
	if e.z == nil {
		return 0
	}
	switch strings.ToLower(feature) {
	case "temperature":
		return e.z.Temperature
	case "humidity":
		return e.z.Humidity
	case "co2":
		return e.z.CO2
	case "hydrogen":
		return e.z.Hydrogen
	case "pressure":
		return e.z.Pressure
	}
	return 0
}

// NewEnv flattens a report into rule variables.
// NewEnv 将报告展开为规则变量。
func NewEnv(r *report.Report) *Env {
	z := r.Standardized
	return &Env{
		Label:             r.Label,
		Fire:              r.Fire,
		Decision:          r.Decision,
		Probability:       r.Probability,
		NoFireProbability: r.NoFireProbability,
		Confidence:        r.Confidence,
		Temperature:       r.Readings.Temperature,
		Humidity:          r.Readings.Humidity,
		CO2:               r.Readings.CO2,
		Hydrogen:          r.Readings.Hydrogen,
		Pressure:          r.Readings.Pressure,
		Saturated:         r.Saturated,
		Clamped:           r.Clamped,
		Failed:            r.Error != "",
		z:                 &z,
	}
}

// Engine holds the active rule set. Rules are swapped atomically on reload.
// Engine 保存当前规则集，重载时原子替换。
type Engine struct {
	rules atomic.Pointer[[]Rule]
}

// NewEngine compiles rules into a new engine.
func NewEngine(rules []config.AlertRule) (*Engine, error) {
	e := &Engine{}
	e.rules.Store(&[]Rule{})
	if err := e.UpdateRules(rules); err != nil {
		return nil, err
	}
	return e, nil
}

// Compile compiles one rule. Compile errors are configuration errors.
// Compile 编译单条规则，编译错误属于配置错误。
func Compile(cfg config.AlertRule) (Rule, error) {
	src := preprocessExpression(cfg.Expr)
	program, err := expr.Compile(src, expr.Env(&Env{}), expr.AsBool())
	if err != nil {
		return Rule{}, fserrors.NewRuleError(cfg.Name, err)
	}
	action := strings.ToLower(strings.TrimSpace(cfg.Action))
	if action == "" {
		action = config.ActionLog
	}
	return Rule{Name: cfg.Name, Source: src, Program: program, Action: action}, nil
}

// UpdateRules compiles and installs a new rule set. On error the current
// set stays active.
// UpdateRules 编译并安装新规则集，出错时保留当前规则集。
func (e *Engine) UpdateRules(configs []config.AlertRule) error {
	newRules := make([]Rule, 0, len(configs))
	for _, cfg := range configs {
		r, err := Compile(cfg)
		if err != nil {
			return err
		}
		newRules = append(newRules, r)
	}
	e.rules.Store(&newRules)
	logger.Get(nil).Infof("[ALERT] %d alert rules loaded", len(newRules))
	return nil
}

// Rules returns the active rule set.
func (e *Engine) Rules() []Rule {
	return *e.rules.Load()
}

// Match returns the names of the rules that fire for r, in rule order.
// Runtime errors in a rule count as no match.
// Match 返回对 r 触发的规则名称。
func (e *Engine) Match(r *report.Report) []string {
	rules := e.Rules()
	if len(rules) == 0 {
		return nil
	}
	env := NewEnv(r)
	var matched []string
	for _, rule := range rules {
		out, err := expr.Run(rule.Program, env)
		if err != nil {
			logger.Get(nil).Debugf("[ALERT] Rule %s failed: %v", rule.Name, err)
			continue
		}
		if ok, _ := out.(bool); ok {
			matched = append(matched, rule.Name)
		}
	}
	return matched
}

// Evaluate attaches matched rule names to r, counts them and logs rules
// whose action is log.
// Evaluate 将匹配的规则名附加到 r，计数并记录 log 动作的规则。
func (e *Engine) Evaluate(ctx context.Context, r *report.Report) []string {
	matched := e.Match(r)
	if len(matched) == 0 {
		return nil
	}
	log := logger.Get(ctx)
	actions := make(map[string]string, len(matched))
	for _, rule := range e.Rules() {
		actions[rule.Name] = rule.Action
	}
	for _, name := range matched {
		metrics.RecordAlert(name)
		if actions[name] == config.ActionLog {
			log.Warnf("[ALERT] Rule %s matched: label=%s p=%.4f decision=%s", name, r.Label, r.Probability, r.Decision)
		}
	}
	r.Alerts = append(r.Alerts, matched...)
	return matched
}

var aliasPatterns = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`\bbetween\(`), "Between("},
	{regexp.MustCompile(`\bz\(`), "Z("},
}

// preprocessExpression accepts lowercase helper names.
func preprocessExpression(src string) string {
	for _, a := range aliasPatterns {
		src = a.re.ReplaceAllString(src, a.repl)
	}
	return strings.TrimSpace(src)
}

func (r Rule) String() string {
	return fmt.Sprintf("%s [%s]: %s", r.Name, r.Action, r.Source)
}
