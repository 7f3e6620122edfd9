package speciation

// Recorder receives speciation measurements.  The Prometheus adapter in
// monitoring/prometheus implements it; nil disables recording.
type Recorder interface {
	RecordNormalization(database string, substitutions, removals int)
	RecordBlock(kind string)
	RecordCache(hit bool)
	RecordJob(database string, err error)
}

//Personal.AI order the ending
