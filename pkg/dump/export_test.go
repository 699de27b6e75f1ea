package dump

// SetLimit overrides MaxLineSize for one batcher.
func (b *LineBatcher) SetLimit(limit int) {
	b.limit = limit
}
