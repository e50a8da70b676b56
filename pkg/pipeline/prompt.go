package pipeline

// flagMarker is the inline marker pair the annotation call wraps around
// discrepant spans.
const flagMarker = "##"

const summaryPrompt = "You are a healthcare assistant who's job it is to create a brief, " +
	"couple sentence summary of the following transcript of an interaction " +
	"between a doctor and a patient."

const issuePrompt = "You're a healthcare assistant who's job it is to review a doctor's " +
	"notes and a transcript of a conversation between that doctor and a patient. " +
	"Review the doctor's recommendations for any potential issues, misunderstandings, " +
	"or incongruities between what the patient said and what the doctor noted. " +
	"If there are any, create a brief list of them in JSON as an array of objects. " +
	"These object should have a key 'issue' mapping to a string and a key 'description' " +
	"mapping to a string. If there are none, return an empty JSON array."

const annotatePrompt = "Reprint the entire transcript but replace the labels with Doctor " +
	"or Patient. Also, if you identified any potential issues, highlight the area in the " +
	"transcript where each issue was found by surrounding the specific words with the " +
	"following characters: " + flagMarker + ". Be as precise as possible, and make sure " +
	"to reproduce the entire transcript with the only the changes described."

const segmentPrompt = "You are a healthcare assistant who's job it is to take an " +
	"unlabeled transcript of a conversation between a doctor and a patient and reprint " +
	"it with a speaker label in front of each turn, in the form 'Speaker A:' or " +
	"'Speaker B:'. Preserve the wording of the transcript exactly; change nothing but " +
	"the added labels."
