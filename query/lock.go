package query

func (b *Builder) lock(mode string) *Builder {
	if !b.guard() {
		return b
	}
	if b.stmt.Locking == nil {
		b.stmt.Locking = &Locking{}
	}
	b.stmt.Locking.Mode = mode
	return b
}

// ForUpdate marks the statement FOR UPDATE.
func (b *Builder) ForUpdate(ofTables ...string) *Builder {
	b = b.lock("UPDATE")
	if b.stmt.Locking != nil {
		b.stmt.Locking.OfTables = ofTables
	}
	return b
}

// ForShare marks the statement FOR SHARE.
func (b *Builder) ForShare(ofTables ...string) *Builder {
	b = b.lock("SHARE")
	if b.stmt.Locking != nil {
		b.stmt.Locking.OfTables = ofTables
	}
	return b
}

// ForNoKeyUpdate marks the statement FOR NO KEY UPDATE.
func (b *Builder) ForNoKeyUpdate() *Builder { return b.lock("NO KEY UPDATE") }

// ForKeyShare marks the statement FOR KEY SHARE.
func (b *Builder) ForKeyShare() *Builder { return b.lock("KEY SHARE") }

// SkipLocked adds SKIP LOCKED to the locking clause.
func (b *Builder) SkipLocked() *Builder {
	if !b.guard() {
		return b
	}
	if b.stmt.Locking == nil {
		b.stmt.Locking = &Locking{}
	}
	b.stmt.Locking.SkipLocked = true
	return b
}

// NoWait adds NOWAIT to the locking clause.
func (b *Builder) NoWait() *Builder {
	if !b.guard() {
		return b
	}
	if b.stmt.Locking == nil {
		b.stmt.Locking = &Locking{}
	}
	b.stmt.Locking.NoWait = true
	return b
}

// Timeout records a soft timeout (ms) for the runner to apply to this
// chain. cancel, when true, asks the driver to cancel the in-flight
// statement instead of merely surfacing a TimeoutError (spec.md §5).
func (b *Builder) Timeout(ms int, cancel bool) *Builder {
	b.stmt.TimeoutMS = ms
	b.stmt.CancelOnStop = cancel
	return b
}
