package inventory

import "go.uber.org/zap"

// IncrementReads adds one to the reads-since-backup counter and returns the
// new value.
func (r *Repository) IncrementReads() (int, error) {
	n, err := r.counter.IncrementInt(PrefReadsSinceBackup)
	if err != nil {
		r.log.Error("incrementing read counter failed", zap.Error(err))
		return 0, err
	}
	r.log.Debug("read counter incremented", zap.Int("reads", n))
	return n, nil
}

// ResetReads sets the reads-since-backup counter to zero.
func (r *Repository) ResetReads() error {
	if err := r.counter.SetInt(PrefReadsSinceBackup, 0); err != nil {
		r.log.Error("resetting read counter failed", zap.Error(err))
		return err
	}
	r.log.Debug("read counter reset")
	return nil
}

// Reads returns the reads-since-backup counter.
func (r *Repository) Reads() (int, error) {
	return r.counter.GetInt(PrefReadsSinceBackup)
}
