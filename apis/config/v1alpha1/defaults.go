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
	"runtime"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"
)

var (
	DefaultProblem              = "zdt1"
	DefaultNumVariables         = int32(30)
	DefaultPopulationSize       = int32(100)
	DefaultMaxGenerations       = int32(250)
	DefaultMaxEvaluations       = int64(0)
	DefaultSeed                 = uint64(1)
	DefaultEvaluationTimeout    = metav1.Duration{}
	DefaultMaxVariationAttempts = int32(1000)
	DefaultCacheEvaluations     = false
)

// SetDefaults_NSGAIIArgs sets the default parameters for NSGA-II runs.
func SetDefaults_NSGAIIArgs(obj *NSGAIIArgs) {
	if obj.APIVersion == "" {
		obj.APIVersion = APIVersion
	}
	if obj.Kind == "" {
		obj.Kind = Kind
	}
	if obj.Problem == nil {
		obj.Problem = ptr.To(DefaultProblem)
	}
	if obj.NumVariables == nil {
		obj.NumVariables = ptr.To(DefaultNumVariables)
	}
	if obj.PopulationSize == nil {
		obj.PopulationSize = ptr.To(DefaultPopulationSize)
	}
	if obj.MaxGenerations == nil {
		obj.MaxGenerations = ptr.To(DefaultMaxGenerations)
	}
	if obj.MaxEvaluations == nil {
		obj.MaxEvaluations = ptr.To(DefaultMaxEvaluations)
	}
	if obj.Seed == nil {
		obj.Seed = ptr.To(DefaultSeed)
	}
	if obj.Parallelism == nil {
		obj.Parallelism = ptr.To(int32(runtime.NumCPU()))
	}
	if obj.EvaluationTimeout == nil {
		obj.EvaluationTimeout = ptr.To(DefaultEvaluationTimeout)
	}
	if obj.MaxVariationAttempts == nil {
		obj.MaxVariationAttempts = ptr.To(DefaultMaxVariationAttempts)
	}
	if obj.CacheEvaluations == nil {
		obj.CacheEvaluations = ptr.To(DefaultCacheEvaluations)
	}
}
