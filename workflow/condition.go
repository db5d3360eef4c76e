package workflow

import (
	"context"
	"fmt"

	"github.com/flowmesh/engine/config"
	"github.com/flowmesh/engine/flowctx"
)

// EvaluateCondition evaluates c against fc's current scope stack. A nil
// condition always holds (spec.md section 3's Always variant and a
// Decision branch with no condition share this meaning).
func EvaluateCondition(ctx context.Context, c *config.Condition, fc *flowctx.FlowContext) (bool, error) {
	if c == nil {
		return true, nil
	}
	switch c.Kind {
	case config.CondAlways:
		return true, nil
	case config.CondStateEquals:
		v, ok, err := fc.Get(ctx, c.Key)
		if err != nil {
			return false, err
		}
		return ok && v == c.Value, nil
	case config.CondStateExists:
		return fc.Exists(ctx, c.Key)
	case config.CondNot:
		v, err := EvaluateCondition(ctx, c.Not, fc)
		if err != nil {
			return false, err
		}
		return !v, nil
	case config.CondAll:
		for i := range c.All {
			v, err := EvaluateCondition(ctx, &c.All[i], fc)
			if err != nil {
				return false, err
			}
			if !v {
				return false, nil
			}
		}
		return true, nil
	case config.CondAny:
		for i := range c.Any {
			v, err := EvaluateCondition(ctx, &c.Any[i], fc)
			if err != nil {
				return false, err
			}
			if v {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("workflow: unknown condition kind %q", c.Kind)
	}
}
