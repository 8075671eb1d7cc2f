package logger

// LogProbe logs the outcome of probing one remote id.
func LogProbe(id int64, status string, attempts int, err error) {
	fields := map[string]interface{}{
		"id":       id,
		"status":   status,
		"attempts": attempts,
	}

	l := GetLogger().WithFields(fields)
	if err != nil {
		l.WithError(err).Warn("probe failed")
		return
	}
	l.Debug("probe completed")
}

// LogCycle logs the outcome of one poll cycle.
func LogCycle(inserted, pruned, swept int, err error) {
	fields := map[string]interface{}{
		"inserted": inserted,
		"pruned":   pruned,
		"swept":    swept,
	}

	l := GetLogger().WithFields(fields)
	if err != nil {
		l.WithError(err).Error("poll cycle ended early")
		return
	}
	l.Info("poll cycle completed")
}

// LogBooking logs a booking or cancel transaction outcome.
func LogBooking(action string, id int64, success bool, err error) {
	fields := map[string]interface{}{
		"action":  action,
		"id":      id,
		"success": success,
	}

	l := GetLogger().WithFields(fields)
	if err != nil {
		l.WithError(err).Error("booking transaction failed")
		return
	}
	l.Info("booking transaction completed")
}
