package analysis

import (
	"sort"

	"github.com/SAP-F-2025/item-analysis-service/internal/models"
)

// GroupPercent is the share of examinees placed in each of the top and bottom groups.
const GroupPercent = 27

// RankedAttempt is the ranking view of one completed attempt.
type RankedAttempt struct {
	StudentID      string
	Score          float64
	TotalQuestions int
}

// Ranking holds the score-ordered attempts and the top/bottom discrimination groups.
//
// Both groups are cut from the same sorted list, so when 2*GroupSize exceeds the
// number of attempts they share members. That overlap is kept as is.
type Ranking struct {
	Sorted    []RankedAttempt
	GroupSize int

	top    map[string]struct{}
	bottom map[string]struct{}
}

// GroupSizeFor returns the exact ceil(n * 27 / 100), computed in integers.
// A float form such as math.Ceil(float64(n) * 0.27) overshoots on exact
// multiples (n=100 gives 28 instead of 27) and must not be used.
func GroupSizeFor(n int) int {
	if n <= 0 {
		return 0
	}
	return (n*GroupPercent + 99) / 100
}

// Rank sorts attempts by score, highest first, and derives the 27% groups.
// Attempts with equal scores keep their input order.
func Rank(attempts []*models.ExamAttempt) *Ranking {
	sorted := make([]RankedAttempt, 0, len(attempts))
	for _, attempt := range attempts {
		sorted = append(sorted, RankedAttempt{
			StudentID:      attempt.StudentID,
			Score:          attempt.Score,
			TotalQuestions: attempt.TotalQuestions,
		})
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	size := GroupSizeFor(len(sorted))
	r := &Ranking{
		Sorted:    sorted,
		GroupSize: size,
		top:       make(map[string]struct{}, size),
		bottom:    make(map[string]struct{}, size),
	}
	for _, a := range sorted[:size] {
		r.top[a.StudentID] = struct{}{}
	}
	for _, a := range sorted[len(sorted)-size:] {
		r.bottom[a.StudentID] = struct{}{}
	}
	return r
}

func (r *Ranking) Top() []RankedAttempt {
	return r.Sorted[:r.GroupSize]
}

func (r *Ranking) Bottom() []RankedAttempt {
	return r.Sorted[len(r.Sorted)-r.GroupSize:]
}

func (r *Ranking) InTop(studentID string) bool {
	_, ok := r.top[studentID]
	return ok
}

func (r *Ranking) InBottom(studentID string) bool {
	_, ok := r.bottom[studentID]
	return ok
}
