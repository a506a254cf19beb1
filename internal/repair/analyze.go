package repair

import (
	"skinrepair/internal/hierarchy"
	"skinrepair/internal/scene"
)

// MatchAnalysis is a dry run of bone matching without mutating anything.
type MatchAnalysis struct {
	// TargetNames is the number of distinct names in the target tree.
	TargetNames int
	SourceBones int
	Matched     int
	// Unmatched holds names of live source bones absent from the target.
	Unmatched []string
}

// Rate is Matched/SourceBones, or 0 when there are no source bones.
func (a MatchAnalysis) Rate() float64 {
	if a.SourceBones == 0 {
		return 0
	}
	return float64(a.Matched) / float64(a.SourceBones)
}

// AnalyzeMatch reports how many of source's bones would resolve by name
// against targetRoot's tree.
func AnalyzeMatch(source *scene.SkinnedRenderer, targetRoot *scene.Node) MatchAnalysis {
	names := hierarchy.BuildNameIndex(targetRoot)
	a := MatchAnalysis{TargetNames: len(names), SourceBones: len(source.Bones)}
	for _, b := range source.Bones {
		if !scene.Alive(b) {
			continue
		}
		if names.Lookup(b.Name()) != nil {
			a.Matched++
		} else {
			a.Unmatched = append(a.Unmatched, b.Name())
		}
	}
	return a
}
