package grading

import (
	"fmt"
	"sort"
	"strings"
)

// Option is the grading view of an authored answer option. Rank is 1-based
// and only set for ordering questions; Placement is the zone label for
// placement questions.
type Option struct {
	Text      string
	IsCorrect bool
	Rank      int
	Placement string
}

// Outcome is the normalized result of a single grader: a score in [0,1] and
// student-facing feedback.
type Outcome struct {
	Score    float64
	Feedback string
}

// scoreWhenBothEmpty covers the degenerate fuzzy comparison of two empty
// strings, which would otherwise divide by zero.
const scoreWhenBothEmpty = 1.0

const feedbackCorrect = "Correct!"

func normalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// gradeExactChoice scores a single-correct-option question: full credit on a
// case-insensitive match, nothing otherwise.
func gradeExactChoice(selected string, options []Option) (Outcome, error) {
	var correct *Option
	for i := range options {
		if options[i].IsCorrect {
			correct = &options[i]
			break
		}
	}
	if correct == nil {
		return Outcome{}, fmt.Errorf("%w: no option flagged correct", ErrConfiguration)
	}

	if strings.EqualFold(strings.TrimSpace(selected), strings.TrimSpace(correct.Text)) {
		return Outcome{Score: 1, Feedback: feedbackCorrect}, nil
	}

	return Outcome{Score: 0, Feedback: fmt.Sprintf("Incorrect. The correct answer is: %s", correct.Text)}, nil
}

// gradeFuzzyText scores free text against the question's accepted variants.
// Exact case-insensitive matches earn full credit; otherwise the closest
// variant by edit distance determines partial credit.
func gradeFuzzyText(entered string, options []Option) (Outcome, error) {
	if len(options) == 0 {
		return Outcome{}, fmt.Errorf("%w: no acceptable answers configured", ErrConfiguration)
	}

	display := options[0].Text
	incorrect := fmt.Sprintf("Incorrect. The correct answer is: %s", display)

	entered = strings.TrimSpace(entered)
	if entered == "" {
		return Outcome{Score: 0, Feedback: incorrect}, nil
	}

	for _, opt := range options {
		if strings.EqualFold(entered, strings.TrimSpace(opt.Text)) {
			return Outcome{Score: 1, Feedback: feedbackCorrect}, nil
		}
	}

	closest := ""
	best := -1
	for _, opt := range options {
		distance := EditDistance(normalizeText(entered), normalizeText(opt.Text))
		if best < 0 || distance < best {
			best = distance
			closest = strings.TrimSpace(opt.Text)
		}
	}

	longest := len([]rune(entered))
	if l := len([]rune(closest)); l > longest {
		longest = l
	}

	score := scoreWhenBothEmpty
	if longest > 0 {
		score = 1 - float64(best)/float64(longest)
		if score < 0 {
			score = 0
		}
	}

	if score >= 0.5 {
		return Outcome{Score: score, Feedback: fmt.Sprintf("Almost correct! The correct answer is: %s.", closest)}, nil
	}
	return Outcome{Score: score, Feedback: incorrect}, nil
}

// gradeSetOverlap scores a multi-select answer: each correct pick counts for,
// each incorrect pick counts against, floored at zero.
func gradeSetOverlap(selections []string, options []Option) (Outcome, error) {
	correctSet := make(map[string]struct{})
	for _, opt := range options {
		if opt.IsCorrect {
			correctSet[normalizeText(opt.Text)] = struct{}{}
		}
	}
	if len(correctSet) == 0 {
		return Outcome{}, fmt.Errorf("%w: no options flagged correct", ErrConfiguration)
	}

	selectedSet := make(map[string]struct{}, len(selections))
	for _, sel := range selections {
		if normalized := normalizeText(sel); normalized != "" {
			selectedSet[normalized] = struct{}{}
		}
	}

	hits, misses := 0, 0
	for sel := range selectedSet {
		if _, ok := correctSet[sel]; ok {
			hits++
		} else {
			misses++
		}
	}

	score := float64(hits-misses) / float64(len(correctSet))
	if score < 0 {
		score = 0
	}

	feedback := fmt.Sprintf("You correctly selected %d of %d answers.", hits, len(correctSet))
	if score == 1 {
		feedback = feedbackCorrect
	}
	return Outcome{Score: score, Feedback: feedback}, nil
}

// gradeRankSimilarity scores an ordering answer by counting how many pairs of
// items appear out of order relative to the authored ranking.
func gradeRankSimilarity(order []string, options []Option) (Outcome, error) {
	ranked := make([]Option, 0, len(options))
	for _, opt := range options {
		if opt.Rank > 0 {
			ranked = append(ranked, opt)
		}
	}
	if len(ranked) == 0 {
		return Outcome{}, fmt.Errorf("%w: no ranked options configured", ErrConfiguration)
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Rank < ranked[j].Rank })

	reference := make([]string, len(ranked))
	for i, opt := range ranked {
		reference[i] = normalizeText(opt.Text)
	}

	if len(order) != len(reference) {
		return Outcome{}, fmt.Errorf("%w: expected %d items, got %d", ErrValidation, len(reference), len(order))
	}

	candidate := make([]string, len(order))
	for i, item := range order {
		candidate[i] = normalizeText(item)
	}

	// The submitted sequence must be a permutation of the reference items;
	// an unknown item would otherwise drop out of the pair comparison and
	// inflate the score.
	remaining := make(map[string]int, len(reference))
	for _, item := range reference {
		remaining[item]++
	}
	for _, item := range candidate {
		if remaining[item] == 0 {
			return Outcome{}, fmt.Errorf("%w: unknown item %q", ErrValidation, item)
		}
		remaining[item]--
	}

	identical := true
	for i := range reference {
		if reference[i] != candidate[i] {
			identical = false
			break
		}
	}
	if identical {
		return Outcome{Score: 1, Feedback: "Perfect! Everything is in the correct order."}, nil
	}

	n := len(reference)
	maxInversions := n * (n - 1) / 2
	score := 0.0
	if maxInversions > 0 {
		inversions := CountInversions(reference, candidate)
		score = 1 - float64(inversions)/float64(maxInversions)
		if score < 0 {
			score = 0
		}
	}

	return Outcome{Score: score, Feedback: fmt.Sprintf("You have %.0f%% of the order correct.", score*100)}, nil
}

// gradePlacement scores a drag-to-zone answer: the fraction of items placed
// into their correct zone, compared case- and whitespace-insensitively.
func gradePlacement(placements map[string]string, options []Option) (Outcome, error) {
	pairs := make([]Option, 0, len(options))
	for _, opt := range options {
		if strings.TrimSpace(opt.Placement) != "" {
			pairs = append(pairs, opt)
		}
	}
	if len(pairs) == 0 {
		return Outcome{}, fmt.Errorf("%w: no placements configured", ErrConfiguration)
	}

	if len(placements) == 0 {
		return Outcome{Score: 0, Feedback: fmt.Sprintf("You placed 0 out of %d items correctly.", len(pairs))}, nil
	}

	placed := make(map[string]string, len(placements))
	for item, zone := range placements {
		placed[normalizeText(item)] = normalizeText(zone)
	}

	matches := 0
	for _, pair := range pairs {
		if placed[normalizeText(pair.Text)] == normalizeText(pair.Placement) {
			matches++
		}
	}

	score := float64(matches) / float64(len(pairs))
	return Outcome{Score: score, Feedback: fmt.Sprintf("You placed %d out of %d items correctly.", matches, len(pairs))}, nil
}
