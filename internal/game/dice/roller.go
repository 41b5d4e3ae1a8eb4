package dice

import "go.uber.org/zap"

// Roller is the randomness surface consumed by the rest of the engine.
// A virtual tabletop host typically supplies its own implementation so
// that rolls flow through its own dice pipeline.
type Roller interface {
	// RollPercentile returns a uniformly distributed int in [1, 100].
	RollPercentile() int
	// RollDie evaluates a dice-expression string such as "1d10" or "2d10+3".
	RollDie(expr string) (int, error)
}

// Roll evaluates an Expression using the given Source and returns a RollResult.
//
// Precondition: expr must come from Parse (Count >= 1, Sides >= 2); src must be non-nil.
// Postcondition: len(result.Dice) == expr.Count and
// result.Total() == sum(result.Dice) + result.Modifier.
func Roll(expr Expression, src Source) RollResult {
	rolled := make([]int, expr.Count)
	for i := range rolled {
		rolled[i] = src.Intn(expr.Sides) + 1
	}
	return RollResult{
		Expression: expr.Raw,
		Dice:       rolled,
		Modifier:   expr.Modifier,
	}
}

// RollExpr parses expr and rolls it using src in a single call.
//
// Precondition: expr must be a valid dice expression string; src must be non-nil.
// Postcondition: Returns a RollResult or a parse error.
func RollExpr(expr string, src Source) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return Roll(e, src), nil
}

// LoggedRoller implements Roller over a Source, logging every roll at debug
// level with expression, dice values, modifier, and total.
type LoggedRoller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a LoggedRoller that rolls with src and logs to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *LoggedRoller {
	if src == nil || logger == nil {
		panic("dice: NewLoggedRoller: precondition violated: src and logger must be non-nil")
	}
	return &LoggedRoller{src: src, logger: logger}
}

// RollPercentile returns a logged d100 roll in [1, 100].
func (r *LoggedRoller) RollPercentile() int {
	v := Percentile(r.src)
	r.logger.Debug("percentile roll", zap.Int("roll", v))
	return v
}

// RollDie parses expr, rolls it, and logs the result at debug level.
//
// Precondition: expr must be a valid dice expression string.
// Postcondition: Returns the roll total or a parse error.
func (r *LoggedRoller) RollDie(expr string) (int, error) {
	result, err := RollExpr(expr, r.src)
	if err != nil {
		return 0, err
	}
	r.logger.Debug("dice roll",
		zap.String("expression", result.Expression),
		zap.Ints("dice", result.Dice),
		zap.Int("modifier", result.Modifier),
		zap.Int("total", result.Total()),
	)
	return result.Total(), nil
}
