package config

// Test-only constructors to build config structs without flag parsing

func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{level: level, format: format, output: output}
}

func NewGeminiForTest(projectID, location string) *Gemini {
	return &Gemini{projectID: projectID, location: location}
}

func NewRepositoryForTest(backend, projectID, databaseID string) *Repository {
	return &Repository{backend: backend, projectID: projectID, databaseID: databaseID}
}

func NewIndexForTest(path string, compress bool) *Index {
	return &Index{path: path, compress: compress}
}

func NewLearningForTest(askThreshold, gapThreshold float64, topK int) *Learning {
	return &Learning{askThreshold: askThreshold, gapThreshold: gapThreshold, topK: topK}
}

func NewCorpusForTest(path string) *Corpus {
	return &Corpus{path: path}
}
