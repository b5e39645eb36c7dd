package cog

// Fork creates an independent unit from a snapshot of this one. The new
// unit starts from transform(Snapshot()) (or the raw snapshot when
// transform is nil), shares the transition function and queue
// configuration, and gets a brand-new pair of queues plus its own worker.
// After the fork the two units share no mutable state: puts and takes on
// one never affect the other's state or queues.
//
// Name, logger, hooks, retries and base context are inherited and can be
// overridden through optFns; the default fork name appends "-fork" to the
// source name.
func (c *Cog[S, V]) Fork(transform func(S) S, optFns ...func(o *Options)) *Cog[S, V] {
	snap := c.Snapshot()
	if transform != nil {
		snap = transform(snap)
	}

	opts := Options{
		Name:        c.name + "-fork",
		Logger:      c.logger,
		Hooks:       c.hooks,
		Retries:     c.retries,
		BaseContext: c.baseCtx,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return New(snap, c.transition, c.cfg, func(o *Options) { *o = opts })
}
