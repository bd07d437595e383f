package timeline

// Active identifies the visual item covering a global timeline instant.
type Active struct {
	Item  *Item
	Index int
	// Local is the offset into the item's own duration, before trim
	// adjustment. Video source position is TrimStart + Local.
	Local float64
}

// Resolve walks the ordered items accumulating durations and returns the
// first item whose [start, start+duration) range contains t. The second
// return is false for t outside [0, TotalDuration), including negative t.
func Resolve(items []Item, t float64) (Active, bool) {
	if !isFinite(t) || t < 0 {
		return Active{}, false
	}
	running := 0.0
	for i := range items {
		d := items[i].Duration()
		if !isFinite(d) || d <= 0 {
			continue
		}
		if t < running+d {
			return Active{Item: &items[i], Index: i, Local: t - running}, true
		}
		running += d
	}
	return Active{}, false
}

// TotalDuration sums the item durations. Non-finite durations contribute
// zero so a not-yet-probed source never poisons the total.
func TotalDuration(items []Item) float64 {
	total := 0.0
	for i := range items {
		d := items[i].Duration()
		if !isFinite(d) || d <= 0 {
			continue
		}
		total += d
	}
	return total
}

// StartOf returns the global start time of the item at index. The second
// return is false when the index is out of range.
func StartOf(items []Item, index int) (float64, bool) {
	if index < 0 || index >= len(items) {
		return 0, false
	}
	running := 0.0
	for i := 0; i < index; i++ {
		d := items[i].Duration()
		if !isFinite(d) || d <= 0 {
			continue
		}
		running += d
	}
	return running, true
}
