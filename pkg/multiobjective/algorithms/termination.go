package algorithms

// StoppingRule decides when Run stops. It is consulted after the population
// has been initialized and after every generation.
type StoppingRule func(n *NSGAII) bool

// MaxGenerations stops after the given number of generations.
func MaxGenerations(generations int) StoppingRule {
	return func(n *NSGAII) bool {
		return n.Generation() >= generations
	}
}

// MaxEvaluations stops once the evaluation budget is spent. The last
// generation may overshoot the budget by up to one batch.
func MaxEvaluations(evaluations int) StoppingRule {
	return func(n *NSGAII) bool {
		return n.NumberOfEvaluations() >= evaluations
	}
}

// AnyOf stops as soon as one of the rules does.
func AnyOf(rules ...StoppingRule) StoppingRule {
	return func(n *NSGAII) bool {
		for _, r := range rules {
			if r(n) {
				return true
			}
		}
		return false
	}
}
