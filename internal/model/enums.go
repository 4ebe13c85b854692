package model

// Job status
type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusComplete   JobStatus = "COMPLETE"
	JobStatusFailed     JobStatus = "FAILED"
)

// IsTerminal reports whether no further status transition can occur.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusComplete || s == JobStatusFailed
}

// Narration voices
type Voice string

const (
	VoiceAmber   Voice = "amber"
	VoiceClara   Voice = "clara"
	VoiceDominic Voice = "dominic"
	VoiceFelix   Voice = "felix"
	VoiceIsla    Voice = "isla"
	VoiceMarcus  Voice = "marcus"
)

var ValidVoices = []Voice{
	VoiceAmber, VoiceClara, VoiceDominic, VoiceFelix, VoiceIsla, VoiceMarcus,
}

// Narration categories
type Category string

const (
	CategoryAudiobook  Category = "audiobook"
	CategoryMeditation Category = "meditation"
	CategoryNews       Category = "news"
	CategoryPodcast    Category = "podcast"
	CategoryTraining   Category = "training"
)

var ValidCategories = []Category{
	CategoryAudiobook, CategoryMeditation, CategoryNews, CategoryPodcast,
	CategoryTraining,
}

// Background audio beds mixed under the narration
type AudioBed string

const (
	AudioBedNone       AudioBed = "none"
	AudioBedAmbient    AudioBed = "ambient"
	AudioBedCinematic  AudioBed = "cinematic"
	AudioBedLofi       AudioBed = "lofi"
	AudioBedOrchestral AudioBed = "orchestral"
)

var ValidAudioBeds = []AudioBed{
	AudioBedNone, AudioBedAmbient, AudioBedCinematic, AudioBedLofi,
	AudioBedOrchestral,
}
