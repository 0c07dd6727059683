package usecase

import (
	"context"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/campusconnect/student-network-api/internal/model"
	"github.com/campusconnect/student-network-api/internal/repository"
)

const (
	scoreBranchAndYear  = 10
	scoreBranchOnly     = 5
	scorePerSkill       = 2
	scorePerInterest    = 1
	defaultSuggestLimit = 10
)

// Suggestion is one candidate account with its affinity score.
type Suggestion struct {
	User  *model.User
	Score int
}

// Suggest ranks accounts the viewer has no edge with by profile affinity.
// Candidates sharing nothing with the viewer are dropped; ties keep the
// candidate ordering from storage.
func (u *connectionUsecase) Suggest(ctx context.Context, userID string, limit int) ([]*Suggestion, error) {
	if limit <= 0 {
		limit = defaultSuggestLimit
	}

	userOID, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return nil, err
	}

	viewer, err := u.userRepo.GetUser(ctx, userID, repository.ActiveOnly)
	if err != nil {
		return nil, err
	}

	// Any edge in any state excludes a candidate, rejected and blocked
	// included.
	edges, err := u.connRepo.ListByUser(ctx, userOID)
	if err != nil {
		return nil, err
	}

	exclude := make([]bson.ObjectID, 0, len(edges)+1)
	exclude = append(exclude, userOID)
	for _, edge := range edges {
		exclude = append(exclude, edge.Counterpart(userOID))
	}

	candidates, err := u.userRepo.ListCandidates(ctx, exclude)
	if err != nil {
		return nil, err
	}

	suggestions := make([]*Suggestion, 0, len(candidates))
	for _, candidate := range candidates {
		score := affinityScore(viewer, candidate)
		if score == 0 {
			continue
		}
		suggestions = append(suggestions, &Suggestion{User: candidate, Score: score})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Score > suggestions[j].Score
	})

	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}

	return suggestions, nil
}

// affinityScore weighs profile overlap between two accounts. Branch and
// year together outweigh branch alone; skill overlap outweighs interest
// overlap.
func affinityScore(viewer, candidate *model.User) int {
	score := 0

	if candidate.Branch == viewer.Branch && candidate.Branch != "" {
		if candidate.Year == viewer.Year && candidate.Year != "" {
			score += scoreBranchAndYear
		} else {
			score += scoreBranchOnly
		}
	}

	score += overlap(viewer.Skills, candidate.Skills) * scorePerSkill
	score += overlap(viewer.Interests, candidate.Interests) * scorePerInterest

	return score
}

// overlap counts case-insensitive shared entries between two lists.
func overlap(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	set := make(map[string]bool, len(a))
	for _, item := range a {
		set[strings.ToLower(item)] = true
	}

	count := 0
	seen := make(map[string]bool, len(b))
	for _, item := range b {
		key := strings.ToLower(item)
		if set[key] && !seen[key] {
			count++
			seen[key] = true
		}
	}

	return count
}
