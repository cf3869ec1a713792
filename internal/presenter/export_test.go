package presenter

// PendingTimers counts the scheduled callbacks that have not fired yet.
func (p *Presenter) PendingTimers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.timers)
}
