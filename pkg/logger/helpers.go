package logger

// LogPage logs one crawled page
func LogPage(l Logger, page, records int, source string) {
	l.InfoWithFields("Retrieved page", map[string]interface{}{
		"page":    page,
		"records": records,
		"source":  source,
	})
}

// LogPhoto logs the outcome of one photo
func LogPhoto(l Logger, photoID int64, downloaded bool, err error) {
	fields := map[string]interface{}{
		"photo_id":   photoID,
		"downloaded": downloaded,
	}
	if err != nil {
		l.WithError(err).ErrorWithFields("Failed to process photo", fields)
		return
	}
	l.InfoWithFields("Successfully processed photo", fields)
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (n nopLogger) Debug(string)                                   {}
func (n nopLogger) Info(string)                                    {}
func (n nopLogger) Warn(string)                                    {}
func (n nopLogger) Error(string)                                   {}
func (n nopLogger) WithField(string, interface{}) Logger           { return n }
func (n nopLogger) WithFields(map[string]interface{}) Logger       { return n }
func (n nopLogger) WithError(error) Logger                         { return n }
func (n nopLogger) DebugWithFields(string, map[string]interface{}) {}
func (n nopLogger) InfoWithFields(string, map[string]interface{})  {}
func (n nopLogger) WarnWithFields(string, map[string]interface{})  {}
func (n nopLogger) ErrorWithFields(string, map[string]interface{}) {}
