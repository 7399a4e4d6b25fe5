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
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const (
	// GroupName is the API group of the run configuration
	GroupName = "multiobjective.x-k8s.io"

	// Version is the API version of the run configuration
	Version = "v1alpha1"

	// Kind of NSGAIIArgs
	Kind = "NSGAIIArgs"
)

// APIVersion is the group/version string expected in configuration files
var APIVersion = GroupName + "/" + Version

// NSGAIIArgs holds the arguments used to run NSGA-II on a benchmark problem.
// Unset fields are filled in by SetDefaults_NSGAIIArgs.
type NSGAIIArgs struct {
	metav1.TypeMeta `json:",inline"`

	// Problem is the name of the benchmark problem to optimize
	// +kubebuilder:validation:Enum=zdt1;zdt2;dtlz2;dtlz2_3obj;srn
	Problem *string `json:"problem,omitempty"`

	// NumVariables is the number of decision variables of the problem.
	// Problems with a fixed dimension ignore it.
	NumVariables *int32 `json:"numVariables,omitempty"`

	// PopulationSize is the number of solutions kept between generations
	PopulationSize *int32 `json:"populationSize,omitempty"`

	// MaxGenerations stops the run after this many generations. Zero disables the limit.
	MaxGenerations *int32 `json:"maxGenerations,omitempty"`

	// MaxEvaluations stops the run once this many evaluations were spent. Zero disables the limit.
	MaxEvaluations *int64 `json:"maxEvaluations,omitempty"`

	// Epsilons are the box sizes of the epsilon-box dominance archive, either one
	// per objective or a single value for all of them. Empty disables the archive.
	Epsilons []float64 `json:"epsilons,omitempty"`

	// Seed initializes the random number generator
	Seed *uint64 `json:"seed,omitempty"`

	// Parallelism is the number of concurrent evaluations
	Parallelism *int32 `json:"parallelism,omitempty"`

	// EvaluationTimeout bounds the evaluation of one batch of solutions. Zero disables the timeout.
	EvaluationTimeout *metav1.Duration `json:"evaluationTimeout,omitempty"`

	// MaxVariationAttempts is the number of consecutive variation calls
	// without children tolerated before a generation fails
	MaxVariationAttempts *int32 `json:"maxVariationAttempts,omitempty"`

	// CacheEvaluations memoizes objective vectors by decision vector
	CacheEvaluations *bool `json:"cacheEvaluations,omitempty"`
}
