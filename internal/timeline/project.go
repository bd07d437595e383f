package timeline

// Project is the full authored state the engine plays: the ordered visual
// sequence, at most one music track, any number of narration tracks, and the
// caption list.
type Project struct {
	Title     string
	Items     []Item
	Music     *Track
	Narration []Track
	Captions  []Caption
}

// Tracks returns every audio track with a stable mixer key: the music track
// first when present, then narration in order.
func (p *Project) Tracks() []*Track {
	var out []*Track
	if p.Music != nil {
		out = append(out, p.Music)
	}
	for i := range p.Narration {
		out = append(out, &p.Narration[i])
	}
	return out
}

// ItemByID finds an item by identity.
func (p *Project) ItemByID(id string) (*Item, bool) {
	for i := range p.Items {
		if p.Items[i].ID == id {
			return &p.Items[i], true
		}
	}
	return nil, false
}

// RemoveItem drops an item from the sequence, reporting whether it existed.
// The caller releases the item's source handle.
func (p *Project) RemoveItem(id string) bool {
	for i := range p.Items {
		if p.Items[i].ID == id {
			p.Items = append(p.Items[:i], p.Items[i+1:]...)
			return true
		}
	}
	return false
}

// Total is the global timeline length.
func (p *Project) Total() float64 {
	return TotalDuration(p.Items)
}
