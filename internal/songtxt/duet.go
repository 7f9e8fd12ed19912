package songtxt

// SplitDuet reassigns a flat single-player note stream to two players. The
// chart format has no explicit player markers in this case; a second voice's
// notes appear interleaved by time but textually placed to restart, so a
// note whose start beat regresses below the previous note's start marks the
// beginning of player 2's block.
//
// This is a best-effort heuristic inherited from how the catalog encodes
// duets, not a verified splitter; it produces two sub-sequences each
// internally non-decreasing in start beat.
//
// Returns true if a second player block was produced. Charts that already
// have two player blocks are left untouched.
func (t *SongTxt) SplitDuet() bool {
	if t.Notes.IsDuet() {
		return false
	}
	var p1, p2 []Line
	target := &p1
	prev := 0
	switched := false
	for _, line := range t.Notes.Player1 {
		segment := 0
		for i, note := range line.Notes {
			if !switched && note.Start < prev {
				if i > segment {
					// earlier part of this line ends player 1's block
					p1 = append(p1, Line{Notes: line.Notes[segment:i]})
				}
				segment = i
				target = &p2
				switched = true
			}
			prev = note.Start
		}
		*target = append(*target, Line{Notes: line.Notes[segment:], Break: line.Break})
	}
	if len(p2) == 0 {
		return false
	}
	if len(p1) > 0 {
		p1[len(p1)-1].Break = nil
	}
	p2[len(p2)-1].Break = nil
	t.Notes.Player1 = p1
	t.Notes.Player2 = p2
	return true
}
