package diffengine

// lineRec is one line of the aligned edit script, tagged with its kind and
// its 1-based line number on whichever side(s) it belongs to.
type lineRec struct {
	kind    LineKind
	text    string
	oldLine int // 0 if this line has no old-side number
	newLine int // 0 if this line has no new-side number
}

// buildLineRecords flattens a Myers edit script into a single ordered
// sequence of line records, suitable for hunk grouping.
func buildLineRecords(a, b []string) []lineRec {
	ops := myersDiff(a, b)
	recs := make([]lineRec, 0, len(ops))
	for _, op := range ops {
		switch op.kind {
		case opEqual:
			recs = append(recs, lineRec{
				kind:    LineContext,
				text:    a[op.oldIndex],
				oldLine: op.oldIndex + 1,
				newLine: op.newIndex + 1,
			})
		case opDelete:
			recs = append(recs, lineRec{
				kind:    LineRemoved,
				text:    a[op.oldIndex],
				oldLine: op.oldIndex + 1,
			})
		case opInsert:
			recs = append(recs, lineRec{
				kind:    LineAdded,
				text:    b[op.newIndex],
				newLine: op.newIndex + 1,
			})
		}
	}
	return recs
}

// lineRange is a half-open index range [Start, End) into a lineRec slice.
type lineRange struct {
	Start, End int
}

// changedRanges returns the index ranges of recs that are not LineContext,
// each widened to its maximal contiguous run of non-context lines.
func changedRanges(recs []lineRec) []lineRange {
	var ranges []lineRange
	i := 0
	for i < len(recs) {
		if recs[i].kind == LineContext {
			i++
			continue
		}
		start := i
		for i < len(recs) && recs[i].kind != LineContext {
			i++
		}
		ranges = append(ranges, lineRange{Start: start, End: i})
	}
	return ranges
}

// mergeRanges widens each changed range by contextLines on either side and
// merges two neighbouring ranges into one hunk when the run of unchanged
// lines between the original changed ranges is at most mergeGap lines, per
// spec §4.2's hunk-assembly rule.
func mergeRanges(ranges []lineRange, total, contextLines, mergeGap int) []lineRange {
	if len(ranges) == 0 {
		return nil
	}

	widened := make([]lineRange, len(ranges))
	for i, r := range ranges {
		start := r.Start - contextLines
		if start < 0 {
			start = 0
		}
		end := r.End + contextLines
		if end > total {
			end = total
		}
		widened[i] = lineRange{Start: start, End: end}
	}

	merged := []lineRange{widened[0]}
	for i, r := range widened[1:] {
		last := &merged[len(merged)-1]
		if ranges[i+1].Start-ranges[i].End <= mergeGap {
			if r.End > last.End {
				last.End = r.End
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// buildHunks groups recs into Hunks covering each merged range, computing
// OldStart/NewStart from prefix counts so pure-insert and pure-delete hunks
// (which have no record numbered on one side within the range) still report
// the correct anchor line on that side.
func buildHunks(recs []lineRec, contextLines, mergeGap int) []Hunk {
	ranges := changedRanges(recs)
	if len(ranges) == 0 {
		return nil
	}
	merged := mergeRanges(ranges, len(recs), contextLines, mergeGap)

	oldLineBefore := make([]int, len(recs)+1)
	newLineBefore := make([]int, len(recs)+1)
	oldLineBefore[0] = 1
	newLineBefore[0] = 1
	for i, r := range recs {
		oldLineBefore[i+1] = oldLineBefore[i]
		newLineBefore[i+1] = newLineBefore[i]
		if r.oldLine != 0 {
			oldLineBefore[i+1] = r.oldLine + 1
		}
		if r.newLine != 0 {
			newLineBefore[i+1] = r.newLine + 1
		}
	}

	hunks := make([]Hunk, 0, len(merged))
	for _, mr := range merged {
		h := Hunk{
			OldStart: oldLineBefore[mr.Start],
			NewStart: newLineBefore[mr.Start],
			Header:   findSectionHeader(recs, mr.Start),
		}
		for i := mr.Start; i < mr.End; i++ {
			r := recs[i]
			line := DiffLine{Kind: r.kind, Text: r.text, OldLine: r.oldLine, NewLine: r.newLine}
			h.Lines = append(h.Lines, line)
			switch r.kind {
			case LineContext:
				h.OldCount++
				h.NewCount++
			case LineRemoved:
				h.OldCount++
			case LineAdded:
				h.NewCount++
			}
		}
		hunks = append(hunks, h)
	}
	return hunks
}
