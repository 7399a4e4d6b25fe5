package archive

import (
	"math"
	"math/rand/v2"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"sigs.k8s.io/multiobjective/pkg/multiobjective/framework"
)

func solution(violation float64, objs ...float64) *framework.Solution {
	s := framework.NewSolution(framework.NewRealGenome([]float64{0}, nil))
	Expect(s.SetEvaluation(objs, violation)).To(Succeed())
	return s
}

func values(a *EpsilonBoxDominanceArchive) []framework.ObjectiveSpacePoint {
	var out []framework.ObjectiveSpacePoint
	for _, s := range a.Solutions() {
		out = append(out, s.Value)
	}
	return out
}

var _ = Describe("EpsilonBoxDominanceArchive", func() {
	var archive *EpsilonBoxDominanceArchive

	BeforeEach(func() {
		var err error
		archive, err = New([]float64{1}, 2, nil)
		Expect(err).NotTo(HaveOccurred())
	})

	Context("construction", func() {
		It("rejects invalid epsilons", func() {
			for _, eps := range [][]float64{nil, {0}, {-1}, {math.NaN()}, {1, math.Inf(1)}} {
				_, err := New(eps, 2, nil)
				Expect(err).To(MatchError(ErrInvalidEpsilon))
			}
		})

		It("needs one epsilon or one per objective", func() {
			_, err := New([]float64{0.1, 0.2}, 3, nil)
			Expect(err).To(MatchError(ErrInvalidEpsilon))
			_, err = New([]float64{0.1, 0.2, 0.3}, 2, nil)
			Expect(err).To(MatchError(ErrInvalidEpsilon))
			_, err = New([]float64{0.1}, 0, nil)
			Expect(err).To(MatchError(ErrInvalidEpsilon))

			a, err := New([]float64{0.1}, 3, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.NumberOfObjectives()).To(Equal(3))
			Expect(a.Epsilons()).To(Equal([]float64{0.1, 0.1, 0.1}))
		})

		It("rejects solutions with a different number of objectives", func() {
			Expect(archive.Add(solution(0, 0.5, 0.5, 0.5))).To(BeFalse())
			Expect(archive.Add(solution(0, 0.5))).To(BeFalse())
			Expect(archive.Size()).To(BeZero())
		})

		It("saturates box indices outside the int64 range", func() {
			a, err := New([]float64{1e-10}, 2, framework.Directions{framework.Minimize, framework.Maximize})
			Expect(err).NotTo(HaveOccurred())
			Expect(a.Box(solution(0, 1e12, 1e12))).To(Equal(Box{math.MaxInt64, math.MinInt64}))

			small := solution(0, 1e-9, 1e12)
			huge := solution(0, 1e12, 1e12)
			Expect(a.Add(small)).To(BeTrue())
			Expect(a.Add(huge)).To(BeFalse())
			Expect(values(a)).To(Equal([]framework.ObjectiveSpacePoint{{1e-9, 1e12}}))
		})

		It("computes boxes per objective and direction", func() {
			a, err := New([]float64{0.5, 0.25}, 2, framework.Directions{framework.Maximize})
			Expect(err).NotTo(HaveOccurred())
			Expect(a.Box(solution(0, 1.2, 0.3))).To(Equal(Box{-3, 1}))
			Expect(a.Epsilons()).To(Equal([]float64{0.5, 0.25}))
		})
	})

	Context("when solutions share a box", func() {
		It("keeps the dominating solution", func() {
			Expect(archive.Add(solution(0, 0.6, 0.6))).To(BeTrue())
			Expect(archive.Add(solution(0, 0.5, 0.5))).To(BeTrue())
			Expect(archive.Add(solution(0, 0.7, 0.7))).To(BeFalse())
			Expect(values(archive)).To(Equal([]framework.ObjectiveSpacePoint{{0.5, 0.5}}))
		})

		It("keeps the solution closer to the box corner", func() {
			Expect(archive.Add(solution(0, 0.5, 0.5))).To(BeTrue())
			Expect(archive.Add(solution(0, 0.2, 0.7))).To(BeFalse())
			Expect(archive.Add(solution(0, 0.1, 0.6))).To(BeTrue())
			Expect(values(archive)).To(Equal([]framework.ObjectiveSpacePoint{{0.1, 0.6}}))
			Expect(archive.Improvements()).To(Equal(1))
		})

		It("keeps the earlier solution on an exact distance tie", func() {
			Expect(archive.Add(solution(0, 0.3, 0.4))).To(BeTrue())
			Expect(archive.Add(solution(0, 0.4, 0.3))).To(BeFalse())
			Expect(values(archive)).To(Equal([]framework.ObjectiveSpacePoint{{0.3, 0.4}}))

			other, err := New([]float64{1}, 2, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(other.Add(solution(0, 0.4, 0.3))).To(BeTrue())
			Expect(other.Add(solution(0, 0.3, 0.4))).To(BeFalse())
			Expect(values(other)).To(Equal([]framework.ObjectiveSpacePoint{{0.4, 0.3}}))
		})
	})

	Context("when solutions fall in different boxes", func() {
		It("rejects box-dominated newcomers", func() {
			Expect(archive.Add(solution(0, 0.5, 0.5))).To(BeTrue())
			Expect(archive.Add(solution(0, 1.5, 2.5))).To(BeFalse())
			Expect(archive.Size()).To(Equal(1))
		})

		It("removes members the newcomer dominates", func() {
			Expect(archive.AddAll([]*framework.Solution{
				solution(0, 0.5, 3.5),
				solution(0, 3.5, 0.5),
				solution(0, 2.5, 2.5),
			})).To(Equal(3))
			Expect(archive.Add(solution(0, 1.5, 1.5))).To(BeTrue())
			Expect(values(archive)).To(ConsistOf(
				framework.ObjectiveSpacePoint{0.5, 3.5},
				framework.ObjectiveSpacePoint{3.5, 0.5},
				framework.ObjectiveSpacePoint{1.5, 1.5},
			))
			Expect(archive.DominatingImprovements()).To(Equal(1))
			Expect(archive.Improvements()).To(Equal(4))
		})
	})

	Context("constraints", func() {
		It("prefers feasible solutions", func() {
			Expect(archive.Add(solution(2, 0.1, 0.1))).To(BeTrue())
			Expect(archive.Add(solution(1, 5.5, 5.5))).To(BeTrue())
			Expect(archive.Add(solution(0, 9.5, 9.5))).To(BeTrue())
			Expect(values(archive)).To(Equal([]framework.ObjectiveSpacePoint{{9.5, 9.5}}))
			Expect(archive.Add(solution(0.5, 0, 0))).To(BeFalse())
		})
	})

	It("ignores unevaluated solutions", func() {
		Expect(archive.Add(framework.NewSolution(nil))).To(BeFalse())
		Expect(archive.Add(nil)).To(BeFalse())
	})

	It("stores independent copies", func() {
		s := solution(0, 0.5, 0.5)
		Expect(archive.Add(s)).To(BeTrue())
		s.Value[0] = 100
		s.Genome.(*framework.RealGenome).Variables[0] = 1

		stored := archive.Solutions()[0]
		Expect(stored).NotTo(BeIdenticalTo(s))
		Expect(stored.Value).To(Equal(framework.ObjectiveSpacePoint{0.5, 0.5}))
		Expect(stored.Genome.(*framework.RealGenome).Variables).To(Equal([]float64{0}))
	})

	It("stays pairwise non-dominated with one member per box", func() {
		rng := rand.New(rand.NewPCG(3, 5))
		a, err := New([]float64{0.05}, 2, nil)
		Expect(err).NotTo(HaveOccurred())

		for i := 0; i < 2000; i++ {
			x := rng.Float64()
			y := 1 - math.Sqrt(x) + rng.Float64()*0.5
			a.Add(solution(0, x, y))

			members := a.Solutions()
			Expect(len(members)).To(BeNumerically("<=", 1/0.05+1))
		}

		members := a.Solutions()
		dominance := framework.ParetoDominance{}
		seen := map[[2]int64]bool{}
		for i, x := range members {
			b := a.Box(x)
			key := [2]int64{b[0], b[1]}
			Expect(seen).NotTo(HaveKey(key))
			seen[key] = true
			for j, y := range members {
				if i != j {
					Expect(framework.Dominates(dominance, x, y)).To(BeFalse())
				}
			}
		}
	})
})
