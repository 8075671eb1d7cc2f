package logger

// NopLogger discards everything. Tests use it to silence components that log.
type NopLogger struct{}

func (NopLogger) Debug(string) {}
func (NopLogger) Info(string)  {}
func (NopLogger) Warn(string)  {}
func (NopLogger) Error(string) {}
func (NopLogger) Fatal(string) {}

func (n NopLogger) WithField(string, interface{}) Logger          { return n }
func (n NopLogger) WithFields(map[string]interface{}) Logger      { return n }
func (n NopLogger) WithError(error) Logger                        { return n }
func (NopLogger) DebugWithFields(string, map[string]interface{})  {}
func (NopLogger) InfoWithFields(string, map[string]interface{})   {}
func (NopLogger) WarnWithFields(string, map[string]interface{})   {}
func (NopLogger) ErrorWithFields(string, map[string]interface{})  {}
