/*
Copyright 2024 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package v1alpha1

import (
	"math"

	"k8s.io/apimachinery/pkg/util/validation/field"
)

// ValidateNSGAIIArgs validates defaulted NSGAIIArgs. Whether the problem name
// and the number of epsilons fit the problem is checked when the problem is built.
func ValidateNSGAIIArgs(path *field.Path, args *NSGAIIArgs) error {
	var allErrs field.ErrorList

	if args.APIVersion != APIVersion {
		allErrs = append(allErrs, field.NotSupported(path.Child("apiVersion"), args.APIVersion, []string{APIVersion}))
	}
	if args.Kind != Kind {
		allErrs = append(allErrs, field.NotSupported(path.Child("kind"), args.Kind, []string{Kind}))
	}
	if args.Problem == nil || *args.Problem == "" {
		allErrs = append(allErrs, field.Required(path.Child("problem"), "problem name is required"))
	}
	if args.NumVariables == nil || *args.NumVariables <= 0 {
		allErrs = append(allErrs, field.Invalid(path.Child("numVariables"), deref(args.NumVariables), "must be greater than 0"))
	}
	if args.PopulationSize == nil || *args.PopulationSize <= 0 {
		allErrs = append(allErrs, field.Invalid(path.Child("populationSize"), deref(args.PopulationSize), "must be greater than 0"))
	}

	maxGenerations := deref(args.MaxGenerations)
	maxEvaluations := deref(args.MaxEvaluations)
	if maxGenerations < 0 {
		allErrs = append(allErrs, field.Invalid(path.Child("maxGenerations"), maxGenerations, "must not be negative"))
	}
	if maxEvaluations < 0 {
		allErrs = append(allErrs, field.Invalid(path.Child("maxEvaluations"), maxEvaluations, "must not be negative"))
	}
	if maxGenerations <= 0 && maxEvaluations <= 0 {
		allErrs = append(allErrs, field.Required(path.Child("maxGenerations"), "either maxGenerations or maxEvaluations must be greater than 0"))
	}

	for i, eps := range args.Epsilons {
		if math.IsNaN(eps) || math.IsInf(eps, 0) || eps <= 0 {
			allErrs = append(allErrs, field.Invalid(path.Child("epsilons").Index(i), eps, "must be a finite number greater than 0"))
		}
	}

	if p := deref(args.Parallelism); p < 0 {
		allErrs = append(allErrs, field.Invalid(path.Child("parallelism"), p, "must not be negative"))
	}
	if args.EvaluationTimeout != nil && args.EvaluationTimeout.Duration < 0 {
		allErrs = append(allErrs, field.Invalid(path.Child("evaluationTimeout"), args.EvaluationTimeout.String(), "must not be negative"))
	}
	if args.MaxVariationAttempts == nil || *args.MaxVariationAttempts <= 0 {
		allErrs = append(allErrs, field.Invalid(path.Child("maxVariationAttempts"), deref(args.MaxVariationAttempts), "must be greater than 0"))
	}

	return allErrs.ToAggregate()
}

func deref[T int32 | int64](v *T) T {
	if v == nil {
		return 0
	}
	return *v
}
